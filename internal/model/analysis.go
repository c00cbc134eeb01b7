package model

const (
	AnalysisStatusPending   = "pending"
	AnalysisStatusCompleted = "completed"
	AnalysisStatusFallback  = "fallback"
)

// Analysis is the durable record of one document-analysis request. The
// status moves from pending to exactly one terminal state.
type Analysis struct {
	ID           string `json:"id"`
	CallerID     string `json:"caller_id"`
	FileName     string `json:"file_name"`
	FileKey      string `json:"file_key,omitempty"`
	Status       string `json:"status"`
	Summary      string `json:"summary"`
	FailureClass string `json:"failure_class,omitempty"`
	ProcessingMs int64  `json:"processing_ms"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}
