package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NEXTHYDRA_API_KEY", "")
	cfg := Load()

	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 || cfg.MaxQueueSize != 100 {
		t.Errorf("unexpected pool defaults: workers=%d queue=%d", cfg.WorkerCount, cfg.MaxQueueSize)
	}
	if cfg.MaxNestingDepth != 512 || cfg.DefaultKeyDepth != 3 {
		t.Errorf("unexpected parse defaults: depth=%d keys=%d", cfg.MaxNestingDepth, cfg.DefaultKeyDepth)
	}
	if cfg.FetchTimeout != 30*time.Second || cfg.FetchRetries != 3 {
		t.Errorf("unexpected fetch defaults: timeout=%v retries=%d", cfg.FetchTimeout, cfg.FetchRetries)
	}
	if cfg.FetchUserAgent == "" {
		t.Error("expected a default user agent")
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without an API key")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NEXTHYDRA_API_KEY", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("SCRIPTS_ONLY", "true")
	t.Setenv("FETCH_DELAY", "250ms")
	t.Setenv("MAX_NESTING_DEPTH", "64")

	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if cfg.Port != "9000" || cfg.WorkerCount != 8 || !cfg.ScriptsOnly {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.FetchDelay != 250*time.Millisecond || cfg.MaxNestingDepth != 64 {
		t.Errorf("overrides not applied: delay=%v depth=%d", cfg.FetchDelay, cfg.MaxNestingDepth)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("JOB_TTL", "not-a-duration")
	t.Setenv("PARSE_WORKERS", "abc")

	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected clamped worker count, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected default TTL, got %v", cfg.JobTTL)
	}
	if cfg.ParseWorkers != 4 {
		t.Errorf("expected default parse workers, got %d", cfg.ParseWorkers)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{APIKey: "k", Port: "8090", MaxNestingDepth: 512, DefaultKeyDepth: 3}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.APIKey = "" }, "NEXTHYDRA_API_KEY"},
		{"bad port", func(c *Config) { c.Port = "http" }, "PORT"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"key depth too deep", func(c *Config) { c.DefaultKeyDepth = 600 }, "DEFAULT_KEY_DEPTH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}
