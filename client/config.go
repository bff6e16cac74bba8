package client

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/habedi/cwactl/auth"
)

// DefaultAPIPath is the path prefix of the REST API below the server URL.
const DefaultAPIPath = "/cwa/api/v1"

const defaultTimeout = 30 * time.Second

// ErrInvalidConfig is wrapped by every error returned from Config.Resolve.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds everything needed to talk to one server.
type Config struct {
	ServerURL   string
	ClientID    string
	Credentials auth.Credentials
	RateLimit   RateLimitConfig
	APIPath     string
	Timeout     time.Duration
}

// RateLimitConfig controls admission control and retry behaviour. Zero
// fields take the value from DefaultRateLimitConfig; a negative MaxRetries
// turns rate-limit retries off.
type RateLimitConfig struct {
	Disabled          bool
	MaxRequests       int
	Window            time.Duration
	ThrottleThreshold float64
	RetryAfter        time.Duration // fallback delay when the server gives no usable hint
	MaxRetries        int
}

// DefaultRateLimitConfig returns the limits used when none are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests:       100,
		Window:            60 * time.Second,
		ThrottleThreshold: 0.8,
		RetryAfter:        5 * time.Second,
		MaxRetries:        3,
	}
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	def := DefaultRateLimitConfig()
	if c.MaxRequests <= 0 {
		c.MaxRequests = def.MaxRequests
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.ThrottleThreshold <= 0 || c.ThrottleThreshold > 1 {
		c.ThrottleThreshold = def.ThrottleThreshold
	}
	if c.RetryAfter <= 0 {
		c.RetryAfter = def.RetryAfter
	}
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = def.MaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	return c
}

// Resolve validates the configuration and returns a copy with defaults
// applied and the trailing slash of ServerURL removed.
func (c Config) Resolve() (Config, error) {
	if c.ServerURL == "" {
		return Config{}, fmt.Errorf("%w: serverUrl is required", ErrInvalidConfig)
	}
	if c.ClientID == "" {
		return Config{}, fmt.Errorf("%w: clientId is required", ErrInvalidConfig)
	}
	if err := c.Credentials.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	c.ServerURL = strings.TrimSuffix(c.ServerURL, "/")
	if c.APIPath == "" {
		c.APIPath = DefaultAPIPath
	}
	if !strings.HasPrefix(c.APIPath, "/") {
		c.APIPath = "/" + c.APIPath
	}
	c.APIPath = strings.TrimSuffix(c.APIPath, "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.RateLimit = c.RateLimit.withDefaults()
	return c, nil
}

// BaseURL is the URL every resource path is appended to.
func (c Config) BaseURL() string { return c.ServerURL + c.APIPath }

// TokenURL is the token-issuance endpoint.
func (c Config) TokenURL() string { return c.BaseURL() + "/apitoken" }
