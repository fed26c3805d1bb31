package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.Concurrency != DefaultConcurrency {
		t.Fatalf("concurrency: got %d want %d", settings.Concurrency, DefaultConcurrency)
	}
	if settings.StateBackend != BackendFile {
		t.Fatalf("backend: got %q want file", settings.StateBackend)
	}
}

func TestLoad_RoundTripAndNormalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	in := Settings{
		Concurrency:  4,
		MaxAttempts:  -1, // invalid, must normalize back to default
		OutputDir:    "  ",
		Proxies:      []string{" http://p1:8080 ", "http://p1:8080", ""},
		StateBackend: "REDIS",
	}
	if err := Save(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Concurrency != 4 {
		t.Fatalf("concurrency: got %d want 4", got.Concurrency)
	}
	if got.MaxAttempts != DefaultMaxAttempts {
		t.Fatalf("max attempts not normalized: %d", got.MaxAttempts)
	}
	if got.OutputDir != DefaultOutputDir {
		t.Fatalf("output dir not normalized: %q", got.OutputDir)
	}
	if len(got.Proxies) != 1 || got.Proxies[0] != "http://p1:8080" {
		t.Fatalf("proxies not normalized: %v", got.Proxies)
	}
	if got.StateBackend != BackendRedis {
		t.Fatalf("backend: got %q want redis", got.StateBackend)
	}
}

func TestLoad_CorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{oops"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error for corrupt settings")
	}
}

func TestLoad_EnvOverridesRedis(t *testing.T) {
	t.Setenv("FETCHQ_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("FETCHQ_REDIS_PASSWORD", "hunter2")

	settings, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.RedisAddr != "redis.internal:6380" {
		t.Fatalf("redis addr: got %q", settings.RedisAddr)
	}
	if settings.RedisPassword != "hunter2" {
		t.Fatalf("redis password not applied from env")
	}
}

func TestDurationHelpers(t *testing.T) {
	s := Settings{RetryDelaySec: 5, AttemptTimeoutSec: 0, SaveIntervalSec: 30}
	if s.RetryDelay().Seconds() != 5 {
		t.Fatalf("retry delay: %v", s.RetryDelay())
	}
	if s.AttemptTimeout() != 0 {
		t.Fatalf("attempt timeout should be disabled, got %v", s.AttemptTimeout())
	}
	if s.SaveInterval().Seconds() != 30 {
		t.Fatalf("save interval: %v", s.SaveInterval())
	}
}
