package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	DSN           string           `json:"dsn"`
	MigrationsDir string           `json:"migrations_dir"`
	JWTSecret     string           `json:"jwt_secret"`
	JWTTTLHours   int              `json:"jwt_ttl_hours"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Upload        UploadConfig     `json:"upload"`
	Quota         QuotaConfig      `json:"quota"`
	RateLimit     RateLimitConfig  `json:"rate_limit"`
	AI            AIConfig         `json:"ai"`
	FileStore     FileStoreConfig  `json:"file_store"`
	Mail          MailConfig       `json:"mail"`
}

type UploadConfig struct {
	MaxSizeBytes int64 `json:"max_size_bytes"`
}

type QuotaConfig struct {
	DefaultDocumentLimit int64 `json:"default_document_limit"`
}

type RateLimitConfig struct {
	WindowSeconds int `json:"window_seconds"`
	MaxRequests   int `json:"max_requests"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Model          string      `json:"model"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	MaxInputChars  int         `json:"max_input_chars"`
	Data           interface{} `json:"data"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.Data == nil {
		return nil, fmt.Errorf("ai.data is required")
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Upload.MaxSizeBytes == 0 {
		cfg.Upload.MaxSizeBytes = 50 * 1024 * 1024
	}
	if cfg.Quota.DefaultDocumentLimit == 0 {
		cfg.Quota.DefaultDocumentLimit = 25
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 10
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 90
	}
	if cfg.AI.MaxInputChars == 0 {
		cfg.AI.MaxInputChars = 120000
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	return &cfg, nil
}
