// Package config loads and persists the orchestrator's runtime settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"

	DefaultConcurrency     = 2
	DefaultMaxAttempts     = 3
	DefaultRetryDelaySec   = 5
	DefaultSaveIntervalSec = 30
	DefaultOutputDir       = "downloads"
	DefaultStatePath       = "state/queue.json"
	DefaultRedisAddr       = "localhost:6379"
)

// DefaultPath is where settings live unless --config overrides it.
var DefaultPath = filepath.Join(configHome(), "fetchq", "settings.json")

type Settings struct {
	Concurrency       int      `json:"concurrency,omitempty"`
	MaxAttempts       int      `json:"max_attempts,omitempty"`
	RetryDelaySec     int      `json:"retry_delay_sec,omitempty"`
	AttemptTimeoutSec int      `json:"attempt_timeout_sec,omitempty"` // 0 = no per-attempt deadline
	SaveIntervalSec   int      `json:"save_interval_sec,omitempty"`
	OutputDir         string   `json:"output_dir,omitempty"`
	Proxies           []string `json:"proxies,omitempty"`
	StateBackend      string   `json:"state_backend,omitempty"` // file|redis
	StatePath         string   `json:"state_path,omitempty"`
	RedisAddr         string   `json:"redis_addr,omitempty"`
	RedisPassword     string   `json:"-"`
}

func Defaults() Settings {
	return Settings{
		Concurrency:     DefaultConcurrency,
		MaxAttempts:     DefaultMaxAttempts,
		RetryDelaySec:   DefaultRetryDelaySec,
		SaveIntervalSec: DefaultSaveIntervalSec,
		OutputDir:       DefaultOutputDir,
		Proxies:         []string{},
		StateBackend:    BackendFile,
		StatePath:       DefaultStatePath,
		RedisAddr:       DefaultRedisAddr,
	}
}

// Load reads the settings file, applies defaults for anything unset, and
// layers environment overrides on top. A missing file is a valid default
// configuration.
func Load(path string) (Settings, error) {
	settings := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(settings), nil
		}
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return applyEnv(normalize(settings)), nil
}

// Save writes the settings file, creating parent directories as needed.
func Save(path string, settings Settings) error {
	data, err := json.MarshalIndent(normalize(settings), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings for %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

func (s Settings) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelaySec) * time.Second
}

func (s Settings) AttemptTimeout() time.Duration {
	return time.Duration(s.AttemptTimeoutSec) * time.Second
}

func (s Settings) SaveInterval() time.Duration {
	return time.Duration(s.SaveIntervalSec) * time.Second
}

func normalize(raw Settings) Settings {
	norm := raw
	if norm.Concurrency <= 0 {
		norm.Concurrency = DefaultConcurrency
	}
	if norm.MaxAttempts <= 0 {
		norm.MaxAttempts = DefaultMaxAttempts
	}
	if norm.RetryDelaySec <= 0 {
		norm.RetryDelaySec = DefaultRetryDelaySec
	}
	if norm.AttemptTimeoutSec < 0 {
		norm.AttemptTimeoutSec = 0
	}
	if norm.SaveIntervalSec < 0 {
		norm.SaveIntervalSec = 0
	}
	if strings.TrimSpace(norm.OutputDir) == "" {
		norm.OutputDir = DefaultOutputDir
	}
	if strings.TrimSpace(norm.StatePath) == "" {
		norm.StatePath = DefaultStatePath
	}
	norm.StateBackend = normalizeBackend(norm.StateBackend)
	norm.Proxies = normalizeProxyList(norm.Proxies)
	if strings.TrimSpace(norm.RedisAddr) == "" {
		norm.RedisAddr = DefaultRedisAddr
	}
	return norm
}

func normalizeBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", BackendFile:
		return BackendFile
	case BackendRedis:
		return BackendRedis
	default:
		return BackendFile
	}
}

func normalizeProxyList(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, p := range raw {
		v := strings.TrimSpace(p)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func applyEnv(settings Settings) Settings {
	if addr := strings.TrimSpace(os.Getenv("FETCHQ_REDIS_ADDR")); addr != "" {
		settings.RedisAddr = addr
	}
	settings.RedisPassword = os.Getenv("FETCHQ_REDIS_PASSWORD")
	return settings
}

func configHome() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}
