package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultUserAgent is sent when FETCH_USER_AGENT is unset.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Extraction defaults
	ParseWorkers    int
	MaxNestingDepth int
	ScriptsOnly     bool
	DefaultKeyDepth int

	// Page fetching
	FetchTimeout   time.Duration
	FetchDelay     time.Duration
	FetchMaxBytes  int64
	FetchUserAgent string
	FetchRetries   int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("NEXTHYDRA_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		ParseWorkers:    envInt("PARSE_WORKERS", 4),
		MaxNestingDepth: envInt("MAX_NESTING_DEPTH", 512),
		ScriptsOnly:     envBool("SCRIPTS_ONLY", false),
		DefaultKeyDepth: envInt("DEFAULT_KEY_DEPTH", 3),

		FetchTimeout:   envDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchDelay:     envDuration("FETCH_DELAY", 0),
		FetchMaxBytes:  envInt64("FETCH_MAX_BYTES", 20971520), // 20MB
		FetchUserAgent: envOr("FETCH_USER_AGENT", DefaultUserAgent),
		FetchRetries:   envInt("FETCH_RETRIES", 3),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ParseWorkers <= 0 {
		cfg.ParseWorkers = 4
	}
	if cfg.MaxNestingDepth <= 0 {
		cfg.MaxNestingDepth = 512
	}
	if cfg.DefaultKeyDepth < 0 {
		cfg.DefaultKeyDepth = 3
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.FetchDelay < 0 {
		cfg.FetchDelay = 0
	}
	if cfg.FetchMaxBytes <= 0 {
		cfg.FetchMaxBytes = 20971520
	}
	if cfg.FetchRetries < 0 {
		cfg.FetchRetries = 3
	}

	return cfg
}

// Validate reports every setting the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("NEXTHYDRA_API_KEY is required"))
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORT %q is not a valid port", c.Port))
	}
	if c.DefaultKeyDepth > c.MaxNestingDepth {
		errs = append(errs, fmt.Errorf("DEFAULT_KEY_DEPTH (%d) exceeds MAX_NESTING_DEPTH (%d)", c.DefaultKeyDepth, c.MaxNestingDepth))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
