package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv(env(map[string]string{EnvTokenFile: "/tmp/gmb/token"}))
		require.NoError(t, err)
		assert.Equal(t, apiclient.DefaultBaseURL, cfg.APIURL)
		assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
		assert.Equal(t, "/tmp/gmb/gmbctl.log", cfg.LogFile)
	})

	t.Run("api url precedence", func(t *testing.T) {
		cfg, err := FromEnv(env(map[string]string{
			EnvTokenFile: "/tmp/t",
			EnvLegacyURL: "http://legacy:8000/api/v1",
		}))
		require.NoError(t, err)
		assert.Equal(t, "http://legacy:8000/api/v1", cfg.APIURL)

		cfg, err = FromEnv(env(map[string]string{
			EnvTokenFile: "/tmp/t",
			EnvLegacyURL: "http://legacy:8000/api/v1",
			EnvAPIURL:    "https://api.example.com/api/v1",
		}))
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/api/v1", cfg.APIURL)
	})

	t.Run("timeout", func(t *testing.T) {
		cfg, err := FromEnv(env(map[string]string{EnvTokenFile: "/tmp/t", EnvHTTPTimeout: "5s"}))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)

		_, err = FromEnv(env(map[string]string{EnvTokenFile: "/tmp/t", EnvHTTPTimeout: "soon"}))
		assert.Error(t, err)

		_, err = FromEnv(env(map[string]string{EnvTokenFile: "/tmp/t", EnvHTTPTimeout: "-1s"}))
		assert.Error(t, err)
	})
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GMB_API_URL=http://from-dotenv/api/v1\nGMB_TOKEN_FILE=/tmp/x/token\n"), 0o600))
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvTokenFile, "")
	os.Unsetenv(EnvAPIURL)
	os.Unsetenv(EnvTokenFile)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-dotenv/api/v1", cfg.APIURL)
	assert.Equal(t, "/tmp/x/token", cfg.TokenFile)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
