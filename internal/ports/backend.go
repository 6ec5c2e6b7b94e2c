package ports

import (
	"context"

	"github.com/Patocuak64/dentalsmart-client/internal/domain"
)

// LoginResult carries the bearer credential issued by the backend.
type LoginResult struct {
	AccessToken string
}

// AnalyzeParams is one analysis submission. An empty Token routes the
// call to the public endpoint; Persist asks the backend to store the
// result in the user's history (the backend computes and saves
// atomically, there is no save-existing-result endpoint).
type AnalyzeParams struct {
	Filename   string
	Image      []byte
	Confidence float64
	Persist    bool
	Token      string
}

// DetectionBackend is the remote radiograph analysis service contract.
// Implementations own transport concerns; callers see domain values and
// sentinel-wrapped errors.
type DetectionBackend interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Register(ctx context.Context, email, password string) error
	Analyze(ctx context.Context, params AnalyzeParams) (domain.AnalysisResult, error)
	ListAnalyses(ctx context.Context, token string) ([]domain.SavedAnalysis, error)
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)
}
