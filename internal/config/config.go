// Package config reads the process environment into a typed Config,
// generalizing the teacher's Postgres-DSN settings to the in-memory
// posting engine's persistence directory and HTTP tuning knobs.
package config

import (
	"os"
	"strconv"
)

// Config is the full set of environment-derived settings for cmd/server.
type Config struct {
	HTTPAddr        string
	PersistDir      string
	HTTPMaxInflight int
	MetricsAddr     string
}

// Load reads Config from the environment, applying the teacher's defaults
// pattern: present and well-formed wins, otherwise fall back silently.
func Load() Config {
	return Config{
		HTTPAddr:        mustEnv("LEDGER_HTTP_ADDR", ":8080"),
		PersistDir:      mustEnv("LEDGER_PERSIST_DIR", "./data"),
		HTTPMaxInflight: clamp(mustIntEnv("LEDGER_HTTP_MAX_INFLIGHT", 64), 1, 4096),
		MetricsAddr:     mustEnv("LEDGER_METRICS_ADDR", ":9090"),
	}
}

func mustEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func mustIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
