package model

type APIKey struct {
	ID         string `json:"id"`
	CallerID   string `json:"caller_id"`
	Key        string `json:"key,omitempty"`
	Name       string `json:"name"`
	IsActive   int    `json:"is_active"`
	UsageCount int64  `json:"usage_count"`
	LastUsedAt int64  `json:"last_used_at"`
	Ctime      int64  `json:"ctime"`
}
