package model

// UsageProfile tracks a caller's monthly document quota. DocumentCount
// never exceeds DocumentLimit; the repo enforces this with a conditional
// increment rather than a separate check-then-write.
type UsageProfile struct {
	CallerID      string `json:"caller_id"`
	DocumentCount int64  `json:"document_count"`
	DocumentLimit int64  `json:"document_limit"`
	PeriodStart   int64  `json:"period_start"`
	Mtime         int64  `json:"mtime"`
}
