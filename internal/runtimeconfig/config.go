// Package runtimeconfig loads the embedding host's configuration from
// environment variables, adapted from the teacher's config.Config: same
// getEnv-with-fallback style, retargeted from exchange
// credentials/timeframes to engine wiring (clock mode, persistence
// backend, metrics/introspection addresses).
package runtimeconfig

import (
	"log"
	"os"
	"strings"
	"time"
)

// Config holds the graphrun host's configuration.
type Config struct {
	// ClockMode selects the engine's clock: "sim" or "realtime".
	ClockMode string

	// PersistBackend selects internal/persist's backend: "redis", "sqlite"
	// or "none".
	PersistBackend string
	RedisAddr      string
	RedisPassword  string
	SQLitePath     string

	MetricsAddr    string
	IntrospectAddr string

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string

	// RealtimePollInterval is loaded from HGRAPH_REALTIME_POLL_INTERVAL
	// (default 10ms); the engine and its clocks do not read it.
	RealtimePollInterval time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults for local development.
func Load() *Config {
	return &Config{
		ClockMode: getEnv("HGRAPH_CLOCK_MODE", "sim"),

		PersistBackend: getEnv("HGRAPH_PERSIST_BACKEND", "none"),
		RedisAddr:      getEnv("HGRAPH_REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("HGRAPH_REDIS_PASSWORD", ""),
		SQLitePath:     getEnv("HGRAPH_SQLITE_PATH", "data/hgraph.db"),

		MetricsAddr:    getEnv("HGRAPH_METRICS_ADDR", ":9090"),
		IntrospectAddr: getEnv("HGRAPH_INTROSPECT_ADDR", ":9091"),

		LogLevel: getEnv("HGRAPH_LOG_LEVEL", "info"),

		RealtimePollInterval: getDuration("HGRAPH_REALTIME_POLL_INTERVAL", 10*time.Millisecond),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[runtimeconfig] skipping invalid duration %s=%q: %v", key, v, err)
		return fallback
	}
	return d
}

// ParseTokens splits a comma-separated list into trimmed, non-empty
// items (no further splitting within an item), mirroring the
// teacher's SubscribeTokens parsing, generalised for any comma-separated
// host argument (e.g. a list of root graph module names to load).
func ParseTokens(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ParseLevel maps the LogLevel string to a slog level name accepted by
// runtimelog.Init's caller, validating the value up front the way the
// teacher validates EnabledTFs.
func ParseLevel(level string) string {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return strings.ToLower(level)
	default:
		log.Printf("[runtimeconfig] unknown log level %q, defaulting to info", level)
		return "info"
	}
}
