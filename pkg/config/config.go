// Package config resolves gmbctl settings from an optional .env file and the
// environment. Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/marshallshelly/gmbctl/pkg/session"
)

// Environment variables read by Load.
const (
	EnvAPIURL      = "GMB_API_URL"
	EnvLegacyURL   = "VITE_API_URL"
	EnvTokenFile   = "GMB_TOKEN_FILE"
	EnvHTTPTimeout = "GMB_HTTP_TIMEOUT"
	EnvLogFile     = "GMB_LOG_FILE"
)

// DefaultHTTPTimeout bounds every API request.
const DefaultHTTPTimeout = 30 * time.Second

// Config holds resolved settings.
type Config struct {
	APIURL      string
	TokenFile   string
	HTTPTimeout time.Duration
	LogFile     string
}

// Load reads the given .env files (".env" when none are named; a missing file
// is not an error) and then the environment. Variables already set in the
// environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		APIURL:      firstNonEmpty(getenv(EnvAPIURL), getenv(EnvLegacyURL), apiclient.DefaultBaseURL),
		TokenFile:   getenv(EnvTokenFile),
		HTTPTimeout: DefaultHTTPTimeout,
		LogFile:     getenv(EnvLogFile),
	}

	if raw := strings.TrimSpace(getenv(EnvHTTPTimeout)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", EnvHTTPTimeout, raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s %q: must be positive", EnvHTTPTimeout, raw)
		}
		cfg.HTTPTimeout = d
	}

	if cfg.TokenFile == "" {
		path, err := session.DefaultTokenPath()
		if err != nil {
			return nil, err
		}
		cfg.TokenFile = path
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(filepath.Dir(cfg.TokenFile), "gmbctl.log")
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
