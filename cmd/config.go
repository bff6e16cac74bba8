package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/habedi/cwactl/auth"
	"github.com/habedi/cwactl/client"
	"github.com/habedi/cwactl/pkg/clierr"
	"github.com/habedi/cwactl/pkg/validation"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// configPath is the config file location; the --config flag overrides it.
var configPath = filepath.Join(os.Getenv("HOME"), ".cwactl", "config.toml")

// fileConfig is the on-disk TOML layout.
type fileConfig struct {
	ServerURL      string           `toml:"server_url"`
	ClientID       string           `toml:"client_id"`
	APIPath        string           `toml:"api_path,omitempty"`
	TimeoutSeconds int              `toml:"timeout_seconds,omitempty"`
	Auth           authSection      `toml:"auth"`
	RateLimit      rateLimitSection `toml:"rate_limit"`
}

type authSection struct {
	Method        string `toml:"method"`
	Username      string `toml:"username"`
	Password      string `toml:"password,omitempty"`
	TwoFactorCode string `toml:"-"`
}

type rateLimitSection struct {
	Disabled          bool    `toml:"disabled"`
	MaxRequests       int     `toml:"max_requests"`
	WindowSeconds     int     `toml:"window_seconds"`
	ThrottleThreshold float64 `toml:"throttle_threshold"`
	RetryAfterSeconds int     `toml:"retry_after_seconds"`
	MaxRetries        int     `toml:"max_retries"`
}

func defaultFileConfig() fileConfig {
	rl := client.DefaultRateLimitConfig()
	return fileConfig{
		APIPath: client.DefaultAPIPath,
		Auth:    authSection{Method: string(auth.MethodIntegrator)},
		RateLimit: rateLimitSection{
			MaxRequests:       rl.MaxRequests,
			WindowSeconds:     int(rl.Window / time.Second),
			ThrottleThreshold: rl.ThrottleThreshold,
			RetryAfterSeconds: int(rl.RetryAfter / time.Second),
			MaxRetries:        rl.MaxRetries,
		},
	}
}

// loadConfig reads path onto the defaults and applies CWACTL_* overrides.
// A missing file is not an error; the environment alone may be enough.
func loadConfig(path string) (fileConfig, error) {
	cfg := defaultFileConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", path).Msg("No config file, using environment only")
	case err != nil:
		return cfg, clierr.New(clierr.Config, "failed to read config file "+path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, clierr.New(clierr.Config, "failed to parse config file "+path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *fileConfig) {
	setFromEnv := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setFromEnv("CWACTL_SERVER_URL", &cfg.ServerURL)
	setFromEnv("CWACTL_CLIENT_ID", &cfg.ClientID)
	setFromEnv("CWACTL_AUTH_METHOD", &cfg.Auth.Method)
	setFromEnv("CWACTL_USERNAME", &cfg.Auth.Username)
	setFromEnv("CWACTL_PASSWORD", &cfg.Auth.Password)
	setFromEnv("CWACTL_2FA_CODE", &cfg.Auth.TwoFactorCode)

	if v := os.Getenv("CWACTL_MAX_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.MaxRequests = n
		} else {
			log.Warn().Str("value", v).Msg("Ignoring invalid CWACTL_MAX_REQUESTS")
		}
	}
}

// saveConfig writes cfg with owner-only permissions.
func saveConfig(path string, cfg fileConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// clientConfig converts the file layout to a client.Config.
func (c fileConfig) clientConfig() (client.Config, error) {
	if err := validation.ValidateServerURL(c.ServerURL); err != nil {
		return client.Config{}, clierr.New(clierr.Config,
			"no valid server_url configured; run `cwactl init` or set CWACTL_SERVER_URL", err)
	}
	return client.Config{
		ServerURL: c.ServerURL,
		ClientID:  c.ClientID,
		APIPath:   c.APIPath,
		Timeout:   time.Duration(c.TimeoutSeconds) * time.Second,
		Credentials: auth.Credentials{
			Method:        auth.Method(c.Auth.Method),
			Username:      c.Auth.Username,
			Password:      c.Auth.Password,
			TwoFactorCode: c.Auth.TwoFactorCode,
		},
		RateLimit: client.RateLimitConfig{
			Disabled:          c.RateLimit.Disabled,
			MaxRequests:       c.RateLimit.MaxRequests,
			Window:            time.Duration(c.RateLimit.WindowSeconds) * time.Second,
			ThrottleThreshold: c.RateLimit.ThrottleThreshold,
			RetryAfter:        time.Duration(c.RateLimit.RetryAfterSeconds) * time.Second,
			MaxRetries:        c.RateLimit.MaxRetries,
		},
	}, nil
}

// passwordPrompt asks for a missing password; tests replace it.
var passwordPrompt = func(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no password configured and stdin is not a terminal")
	}
	return promptForPassword(prompt)
}

// newAPIClient builds a client from the config file and environment,
// prompting for the password when none is stored.
func newAPIClient() (*client.Client, error) {
	fc, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if fc.Auth.Password == "" && fc.Auth.Username != "" {
		pw, err := passwordPrompt(fmt.Sprintf("Password for %s: ", fc.Auth.Username))
		if err != nil {
			return nil, clierr.New(clierr.Config, "a password is required", err)
		}
		fc.Auth.Password = pw
	}

	cfg, err := fc.clientConfig()
	if err != nil {
		return nil, err
	}
	c, err := client.New(cfg)
	if err != nil {
		return nil, clierr.New(clierr.Config, err.Error(), err)
	}
	return c, nil
}
