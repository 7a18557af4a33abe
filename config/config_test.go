package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected level debug from file, got %s", cfg.Log.Level)
	}
	if cfg.Scheduler.MaxAttempts != 3 {
		t.Errorf("expected max_attempts 3, got %d", cfg.Scheduler.MaxAttempts)
	}
	if cfg.Scheduler.RetryBackoff != 50*time.Millisecond {
		t.Errorf("expected retry_backoff 50ms, got %s", cfg.Scheduler.RetryBackoff)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("expected rate_limit.window 1m, got %s", cfg.RateLimit.Window)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CAMPUS_SERVER_PORT", "9090")
	cfg, err := Load(writeConfig(t, "server:\n  port: 7000\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected env port 9090, got %d", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server:    ServerConfig{Port: 8080},
			Scheduler: SchedulerConfig{MaxAttempts: 3},
			Tracing:   TracingConfig{SampleRatio: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"zero attempts", func(c *Config) { c.Scheduler.MaxAttempts = 0 }, true},
		{"negative backoff", func(c *Config) { c.Scheduler.RetryBackoff = -time.Second }, true},
		{"mq without url", func(c *Config) { c.MQ.Enabled = true }, true},
		{"sample ratio above one", func(c *Config) { c.Tracing.SampleRatio = 1.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
