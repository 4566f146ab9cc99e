package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8001", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Cache.CandlesMaxAge)
	assert.Equal(t, 7*24*time.Hour, cfg.Cache.FundamentalsStaleAge)
	assert.Equal(t, 20, cfg.Batch.Size)
	assert.Equal(t, 800*time.Millisecond, cfg.Batch.Pause)
	assert.Equal(t, 330, cfg.Calendar.UTCOffsetMinutes)
	assert.Equal(t, 24, cfg.Calendar.MonthlyCutoffDay)
	assert.Equal(t, "close", cfg.Analysis.ReversalRule)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9000"
batch:
  size: 10
  pause: 2s
analysis:
  reversal_rule: open
calendar:
  open: "10:00"
`)
	t.Setenv("BATCH_SIZE", "5")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 5, cfg.Batch.Size)
	assert.Equal(t, 2*time.Second, cfg.Batch.Pause)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.Equal(t, "open", cfg.Analysis.ReversalRule)
	assert.Equal(t, "10:00", cfg.Calendar.Open)
	assert.Equal(t, "15:30", cfg.Calendar.Close)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad reversal rule", "analysis:\n  reversal_rule: median\n"},
		{"bad universe", "data_source:\n  universe: sensex\n"},
		{"bad open time", "calendar:\n  open: \"9am\"\n"},
		{"stale shorter than fresh", "cache:\n  candles_max_age: 2h\n  candles_stale_age: 1h\n"},
		{"token without chat", "telegram:\n  bot_token: abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.body))
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "http: [unterminated"))
	assert.Error(t, err)
}
