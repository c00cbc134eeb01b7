package model

type UsageLog struct {
	ID             string `json:"id"`
	CallerID       string `json:"caller_id"`
	Endpoint       string `json:"endpoint"`
	Outcome        string `json:"outcome"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	ClientIP       string `json:"client_ip"`
	UserAgent      string `json:"user_agent"`
	Ctime          int64  `json:"ctime"`
}
