package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadAppliesDefaultsWhenUnset(t *testing.T) {
	t.Setenv("LEDGER_HTTP_ADDR", "")
	t.Setenv("LEDGER_PERSIST_DIR", "")
	t.Setenv("LEDGER_HTTP_MAX_INFLIGHT", "")
	t.Setenv("LEDGER_METRICS_ADDR", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "./data", cfg.PersistDir)
	assert.Equal(t, 64, cfg.HTTPMaxInflight)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadHonorsOverridesAndClampsInflight(t *testing.T) {
	t.Setenv("LEDGER_HTTP_ADDR", ":9999")
	t.Setenv("LEDGER_PERSIST_DIR", "/var/data/ledger")
	t.Setenv("LEDGER_HTTP_MAX_INFLIGHT", "100000")
	t.Setenv("LEDGER_METRICS_ADDR", ":9191")

	cfg := Load()
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "/var/data/ledger", cfg.PersistDir)
	assert.Equal(t, 4096, cfg.HTTPMaxInflight)
	assert.Equal(t, ":9191", cfg.MetricsAddr)
}
