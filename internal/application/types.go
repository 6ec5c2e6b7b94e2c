package application

import (
	"time"

	"github.com/Patocuak64/dentalsmart-client/internal/domain"
)

// DefaultConfidence is the fixed detection threshold submitted with
// every analyze call.
const DefaultConfidence = 0.25

type Config struct {
	Confidence float64
}

// Step is the wizard position of one workflow instance.
type Step string

const (
	StepUnauthenticated Step = "unauthenticated"
	StepUpload          Step = "upload"
	StepAnalyzing       Step = "analyzing"
	StepResults         Step = "results"
	StepSaving          Step = "saving"
	StepDone            Step = "done"
)

// Snapshot is an observer's view of the workflow. The bearer token is
// deliberately absent; consumers only learn whether one is held.
type Snapshot struct {
	Step          Step                   `json:"step"`
	Authenticated bool                   `json:"authenticated"`
	Email         string                 `json:"email,omitempty"`
	Filename      string                 `json:"filename,omitempty"`
	Loading       bool                   `json:"loading"`
	Saving        bool                   `json:"saving"`
	LastError     string                 `json:"last_error,omitempty"`
	LastSavedAt   time.Time              `json:"last_saved_at"`
	Result        *domain.AnalysisResult `json:"-"`
}

// HistoryResult is a saved-analysis listing. Stale marks a cached copy
// served because the backend could not be reached.
type HistoryResult struct {
	Analyses []domain.SavedAnalysis `json:"analyses"`
	Stale    bool                   `json:"stale"`
}
