package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
}

func TestLoadSQLiteDefaults(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("CHECKIN_SECRET", "")
	t.Setenv("CHECKIN_ALLOW_PLAIN_ID", "")

	cfg := Load()
	require.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "seatplan.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.BulkTxTimeout)
	assert.Equal(t, 10*time.Second, cfg.AssignTxTimeout)
	assert.Equal(t, "s3cret", cfg.CheckIn.Secret, "check-in secret falls back to the JWT secret")
	assert.True(t, cfg.CheckIn.AllowPlainID)
	assert.False(t, cfg.IsProd())
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ASSIGN_TX_TIMEOUT", "3s")
	t.Setenv("CHECKIN_ALLOW_PLAIN_ID", "off")
	t.Setenv("ADMIN_EMAIL", "  Admin@Example.COM ")

	cfg := Load()
	assert.Equal(t, 3*time.Second, cfg.AssignTxTimeout)
	assert.False(t, cfg.CheckIn.AllowPlainID)
	assert.Equal(t, "admin@example.com", cfg.AdminEmail)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_LOGIN_PER_MIN", "-3")

	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 10*time.Second, rl.TTL, "ttl is raised to five refill intervals")
	assert.Equal(t, 1, rl.LoginPerMinute)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	t.Setenv("CACHE_PREFIX", "p")

	cc := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cc.Methods)
	assert.Equal(t, "p:gen", cc.GenerationKey())
	assert.Equal(t, 2*time.Second, cc.TTL)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "Yes")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "250ms")

	assert.True(t, envBool("X_BOOL", false))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 250*time.Millisecond, envDur("X_DUR", time.Second))
	assert.Equal(t, "fallback", envStr("X_MISSING", "fallback"))
}
