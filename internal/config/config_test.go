package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "nimbus", cfg.ServiceName)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "   ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SEND_BUFFER", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 8, cfg.SendBuffer)
}

func TestLoad_RejectsBadSendBuffer(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SEND_BUFFER", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEND_BUFFER")
}
