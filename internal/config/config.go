// Package config loads poster configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Byte limits for a single posted image. TargetMaxBytes sits below the
// hard protocol limit MaxBytes so the fitter leaves margin for encoder
// variance and downstream framing overhead.
const (
	MaxBytes       = 1_000_000
	TargetMaxBytes = 950_000
)

const (
	defaultPDS        = "https://bsky.social"
	defaultPicsumBase = "https://picsum.photos"
	defaultTimeoutSec = 30
)

// ErrMissingCredentials reports absent account credentials.
var ErrMissingCredentials = errors.New("missing BSKY_HANDLE or BSKY_APP_PASSWORD")

// Config is the resolved runtime configuration.
type Config struct {
	Handle      string
	AppPassword string
	PDS         string
	PicsumBase  string
	HTTPTimeout time.Duration

	MaxBytes       int
	TargetMaxBytes int
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"handle":          "BSKY_HANDLE",
	"app_password":    "BSKY_APP_PASSWORD",
	"pds":             "BSKY_PDS",
	"picsum_base":     "PICSUM_BASE_URL",
	"timeout_seconds": "HTTP_TIMEOUT_SECONDS",
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present; its absence is not an error.
// Credential presence is checked separately via RequireCredentials so
// offline runs can proceed without an account.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	v.SetDefault("pds", defaultPDS)
	v.SetDefault("picsum_base", defaultPicsumBase)
	v.SetDefault("timeout_seconds", defaultTimeoutSec)

	timeout := v.GetInt("timeout_seconds")
	if timeout <= 0 {
		timeout = defaultTimeoutSec
	}

	return &Config{
		Handle:         strings.TrimSpace(v.GetString("handle")),
		AppPassword:    strings.TrimSpace(v.GetString("app_password")),
		PDS:            strings.TrimSpace(v.GetString("pds")),
		PicsumBase:     strings.TrimSpace(v.GetString("picsum_base")),
		HTTPTimeout:    time.Duration(timeout) * time.Second,
		MaxBytes:       MaxBytes,
		TargetMaxBytes: TargetMaxBytes,
	}, nil
}

// RequireCredentials fails when the account handle or app password is unset.
func (c *Config) RequireCredentials() error {
	if c.Handle == "" || c.AppPassword == "" {
		return ErrMissingCredentials
	}
	return nil
}
