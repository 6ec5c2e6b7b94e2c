package domain

import "encoding/json"

// Detection is a single finding on the radiograph.
type Detection struct {
	ClassName  string
	Confidence float64
}

// Summary aggregates detections per condition class.
type Summary struct {
	Total    int
	PerClass map[string]int
}

// AnalysisResult is the structured outcome of one analyze call. The
// annotated image is held for display only and never processed further.
// Stats is kept raw because the backend emits either a string or an
// object there.
type AnalysisResult struct {
	ReportText       string
	Stats            json.RawMessage
	Summary          Summary
	Detections       []Detection
	TeethByCondition map[string][]int
	AnnotatedImage   []byte
}

// SavedAnalysis is one record of the per-user server-side history.
// CreatedAt, Summary and Stats are carried opaquely; their exact shape
// is owned by the backend and only displayed.
type SavedAnalysis struct {
	ID        int64           `json:"id"`
	FileName  string          `json:"file_name"`
	CreatedAt string          `json:"created_at"`
	Summary   json.RawMessage `json:"summary,omitempty"`
	Stats     json.RawMessage `json:"stats,omitempty"`
}

// ModelMetrics are the headline comparison metrics of one trained model.
type ModelMetrics struct {
	MAP50     float64 `json:"map50"`
	MAP5095   float64 `json:"map50_95"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// ModelInfo describes one detection model the backend can serve.
type ModelInfo struct {
	ID              string                  `json:"id"`
	Name            string                  `json:"name"`
	Architecture    string                  `json:"architecture"`
	Epochs          int                     `json:"epochs"`
	TrainingHours   float64                 `json:"training_hours"`
	Status          string                  `json:"status"`
	IsActive        bool                    `json:"is_active"`
	Description     string                  `json:"description"`
	Metrics         ModelMetrics            `json:"metrics"`
	PerClassMetrics map[string]ModelMetrics `json:"per_class_metrics,omitempty"`
}
