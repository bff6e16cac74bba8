package auth

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const flightKey = "token"

// Manager caches a bearer token and makes sure at most one token request is
// in flight at a time. Callers racing on a cold cache share that request and
// its outcome.
type Manager struct {
	fetcher Fetcher
	clock   clockwork.Clock
	logger  zerolog.Logger

	mu    sync.Mutex
	token *Token

	flight singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for expiry checks.
func WithClock(c clockwork.Clock) Option { return func(m *Manager) { m.clock = c } }

// WithLogger sets the logger used by the manager.
func WithLogger(l zerolog.Logger) Option { return func(m *Manager) { m.logger = l } }

// NewManager creates a Manager that obtains tokens from f.
func NewManager(f Fetcher, opts ...Option) *Manager {
	m := &Manager{
		fetcher: f,
		clock:   clockwork.NewRealClock(),
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetToken returns the cached access token, or acquires one. Concurrent
// callers arriving during an acquisition wait for it instead of starting
// their own.
func (m *Manager) GetToken(ctx context.Context) (string, error) {
	tok, err := m.getToken(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// RefreshToken drops the cached token and acquires a new one, joining an
// acquisition that is already running.
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	m.InvalidateToken()
	tok, err := m.acquire(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// InvalidateToken drops the cached token. An acquisition already in flight
// is not affected and its result is cached when it lands.
func (m *Manager) InvalidateToken() {
	m.mu.Lock()
	m.token = nil
	m.mu.Unlock()
	m.logger.Debug().Msg("Access token invalidated")
}

// HasValidToken reports whether a usable token is cached.
func (m *Manager) HasValidToken() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token.ValidAt(m.clock.Now())
}

// CurrentToken returns a copy of the cached token if it is still usable.
func (m *Manager) CurrentToken() (Token, bool) {
	if tok := m.cached(); tok != nil {
		return *tok, true
	}
	return Token{}, false
}

func (m *Manager) getToken(ctx context.Context) (*Token, error) {
	if tok := m.cached(); tok != nil {
		return tok, nil
	}
	return m.acquire(ctx)
}

// cached returns the cached token if usable and clears a stale one.
func (m *Manager) cached() *Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token.ValidAt(m.clock.Now()) {
		return m.token
	}
	m.token = nil
	return nil
}

func (m *Manager) acquire(ctx context.Context) (*Token, error) {
	// The shared fetch must outlive any single waiter giving up.
	fetchCtx := context.WithoutCancel(ctx)
	ch := m.flight.DoChan(flightKey, func() (any, error) {
		if tok := m.cached(); tok != nil {
			return tok, nil
		}
		m.logger.Debug().Msg("Acquiring access token")
		tok, err := m.fetcher.FetchToken(fetchCtx)
		if err != nil {
			m.logger.Error().Err(err).Msg("Failed to acquire access token")
			return nil, err
		}
		m.mu.Lock()
		m.token = tok
		m.mu.Unlock()
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Token), nil
	}
}
