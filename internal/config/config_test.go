package config

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/pkg/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PRIMARY_STORE_DRIVER", "")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "")
	t.Setenv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "")
	t.Setenv("SERVER_ENVIRONMENT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "5001", cfg.Server.Port)
	assert.Equal(t, DriverNone, cfg.Store.Driver)
	assert.Equal(t, "24h", cfg.JWT.ExpiresIn)
	assert.Equal(t, 10*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Store.RetryCooldown)
	assert.Equal(t, "./data", cfg.Store.RecordDir)
}

func TestLoadConfigSupabaseAliases(t *testing.T) {
	t.Setenv("PRIMARY_STORE_DRIVER", "")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "anon-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverSupabase, cfg.Store.Driver)
	assert.Equal(t, "https://proj.supabase.co", cfg.Store.SupabaseURL)
	assert.Equal(t, "anon-key", cfg.Store.SupabaseKey)
}

func TestLoadConfigRejectsIncompleteDriver(t *testing.T) {
	t.Setenv("PRIMARY_STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := LoadConfig()
	assert.ErrorIs(t, err, apperr.ErrConfiguration)

	t.Setenv("PRIMARY_STORE_DRIVER", "cassandra")
	_, err = LoadConfig()
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestProductionDisablesDemoMode(t *testing.T) {
	t.Setenv("PRIMARY_STORE_DRIVER", "")
	t.Setenv("SERVER_ENVIRONMENT", "production")
	t.Setenv("DEMO_MODE", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.DemoMode)
}

func TestSigningSecret(t *testing.T) {
	cfg := &Config{}
	cfg.JWT.Secret = "configured"
	s, err := cfg.SigningSecret()
	require.NoError(t, err)
	assert.Equal(t, "configured", s)

	cfg.JWT.Secret = ""
	s, err = cfg.SigningSecret()
	require.NoError(t, err)
	assert.Equal(t, DemoSecret, s)

	cfg.Server.Environment = "Production"
	_, err = cfg.SigningSecret()
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestRedisAddr(t *testing.T) {
	assert.Equal(t, "", RedisConfig{}.Addr())
	assert.Equal(t, "cache:6379", RedisConfig{Host: "cache"}.Addr())
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: "6380"}.Addr())
}

func TestUnusableTokenLifetimeWarns(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })
	t.Setenv("PRIMARY_STORE_DRIVER", "")
	t.Setenv("SERVER_ENVIRONMENT", "")

	t.Setenv("JWT_EXPIRES_IN", "300y")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "300y", cfg.JWT.ExpiresIn)
	assert.Contains(t, buf.String(), "JWT_EXPIRES_IN")

	buf.Reset()
	t.Setenv("JWT_EXPIRES_IN", "12h")
	_, err = LoadConfig()
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "JWT_EXPIRES_IN")
}
