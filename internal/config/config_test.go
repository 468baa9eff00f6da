package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB_NAME", "")
	t.Setenv("BOT_OWNER_IDS", "")
	t.Setenv("BROADCAST_BATCH_SIZE", "")
	t.Setenv("BROADCAST_BATCH_COOLDOWN_MS", "")
	t.Setenv("BROADCAST_MAX_FLOOD_WAIT_SECONDS", "")
	t.Setenv("BROADCAST_MAX_RATE_LIMIT_RETRIES", "")
	t.Setenv("BROADCAST_SEND_RATE_PER_SECOND", "")
	t.Setenv("ADMIN_REFRESH_INTERVAL_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gcast_bot", cfg.MongoDBName)
	assert.Empty(t, cfg.BotOwnerIDs)
	assert.Equal(t, 100, cfg.Broadcast.BatchSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Broadcast.BatchCooldown)
	assert.Equal(t, 60*time.Second, cfg.Broadcast.MaxFloodWait)
	assert.Equal(t, 0, cfg.Broadcast.MaxRateLimitRetries)
	assert.Equal(t, 30, cfg.Broadcast.SendRatePerSecond)
	assert.Equal(t, 300*time.Second, cfg.AdminRefreshInterval)
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BOT_OWNER_IDS", "111, 222,")
	t.Setenv("BROADCAST_BATCH_SIZE", "50")
	t.Setenv("BROADCAST_BATCH_COOLDOWN_MS", "0")
	t.Setenv("BROADCAST_MAX_RATE_LIMIT_RETRIES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int64{111, 222}, cfg.BotOwnerIDs)
	assert.Equal(t, 50, cfg.Broadcast.BatchSize)
	assert.Equal(t, time.Duration(0), cfg.Broadcast.BatchCooldown)
	assert.Equal(t, 5, cfg.Broadcast.MaxRateLimitRetries)
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "owner id", key: "BOT_OWNER_IDS", value: "abc"},
		{name: "batch size zero", key: "BROADCAST_BATCH_SIZE", value: "0"},
		{name: "cooldown not a number", key: "BROADCAST_BATCH_COOLDOWN_MS", value: "1.5s"},
		{name: "negative retries", key: "BROADCAST_MAX_RATE_LIMIT_RETRIES", value: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores the previous one when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
