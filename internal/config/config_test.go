package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", c.App.Env)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, time.Hour, c.JWT.AccessTTL)
	require.Equal(t, 5*time.Minute, c.Auth.ExchangeTTL)
	require.Equal(t, 10*time.Minute, c.Auth.OTPTTL)
	require.Equal(t, RateRule{Limit: 10, Window: time.Minute}, c.Rate.Login)
	require.Equal(t, "http://localhost:8080/v1/auth/google/callback", c.Providers.Google.RedirectURL)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	p := writeYAML(t, `
app:
  env: staging
server:
  addr: ":9000"
jwt:
  access_ttl: 30m
rate:
  enabled: true
  login:
    limit: 3
    window: 1m
providers:
  google:
    enabled: true
    client_id: yaml-id
    client_secret: yaml-secret
`)
	t.Setenv("SERVER_ADDR", ":9100")
	t.Setenv("GOOGLE_CLIENT_ID", "env-id")
	t.Setenv("JWT_KEYS", "a,b")

	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "staging", c.App.Env)
	require.Equal(t, ":9100", c.Server.Addr)
	require.Equal(t, 30*time.Minute, c.JWT.AccessTTL)
	require.Equal(t, []string{"a", "b"}, c.JWT.Keys)
	require.Equal(t, RateRule{Limit: 3, Window: time.Minute}, c.Rate.Login)
	require.Equal(t, "env-id", c.Providers.Google.ClientID)
	require.Equal(t, "yaml-secret", c.Providers.Google.ClientSecret)
}

func TestValidate(t *testing.T) {
	t.Run("postgres needs dsn", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "postgres")
		_, err := Load("")
		require.ErrorContains(t, err, "storage.dsn")
	})
	t.Run("prod needs keys and durable storage", func(t *testing.T) {
		t.Setenv("APP_ENV", "prod")
		_, err := Load("")
		require.ErrorContains(t, err, "jwt.keys")
		require.ErrorContains(t, err, "storage.driver=memory")
	})
	t.Run("enabled provider needs credentials", func(t *testing.T) {
		p := writeYAML(t, "providers:\n  facebook:\n    enabled: true\n")
		_, err := Load(p)
		require.ErrorContains(t, err, "providers.facebook")
	})
	t.Run("unknown cache driver", func(t *testing.T) {
		t.Setenv("CACHE_DRIVER", "memcached")
		_, err := Load("")
		require.ErrorContains(t, err, "cache.driver")
	})
}
