package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/habedi/cwactl/auth"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client is the entry point to the API. It owns one token manager and one
// rate limiter shared by all of its services.
type Client struct {
	cfg      Config
	auth     *auth.Manager
	limiter  *RateLimiter
	executor *Executor

	Computers *ComputersService
	Clients   *ClientsService
	Locations *LocationsService
	Contacts  *ContactsService
	Alerts    *AlertsService
	Scripts   *ScriptsService
	Patches   *PatchesService
	Groups    *GroupsService
}

type options struct {
	httpClient *http.Client
	clock      clockwork.Clock
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option { return func(o *options) { o.httpClient = hc } }

// WithClock sets the clock used for token expiry, the rate window and retry sleeps.
func WithClock(c clockwork.Clock) Option { return func(o *options) { o.clock = c } }

// WithLogger sets the logger; the global zerolog logger is used otherwise.
func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.logger = l } }

// RateLimitStatus is a snapshot of the rate window.
type RateLimitStatus struct {
	Remaining int
	Rate      float64
}

// service is embedded by every resource service.
type service struct {
	r Requester
}

// New validates cfg and builds a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	o := options{clock: clockwork.NewRealClock(), logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: resolved.Timeout}
	}

	fetcher := auth.NewHTTPFetcher(resolved.TokenURL(), resolved.ClientID, resolved.Credentials, o.httpClient)
	manager := auth.NewManager(fetcher, auth.WithClock(o.clock), auth.WithLogger(o.logger))

	limiter := NewRateLimiter(resolved.RateLimit, o.clock)
	limiter.logger = o.logger

	executor := NewExecutor(resolved.BaseURL(), resolved.ClientID, o.httpClient, manager, limiter, o.clock)
	executor.logger = o.logger

	c := &Client{cfg: resolved, auth: manager, limiter: limiter, executor: executor}
	s := service{r: executor}
	c.Computers = (*ComputersService)(&s)
	c.Clients = (*ClientsService)(&s)
	c.Locations = (*LocationsService)(&s)
	c.Contacts = (*ContactsService)(&s)
	c.Alerts = (*AlertsService)(&s)
	c.Scripts = (*ScriptsService)(&s)
	c.Patches = (*PatchesService)(&s)
	c.Groups = (*GroupsService)(&s)
	return c, nil
}

// Execute performs a raw request relative to the API base path.
func (c *Client) Execute(ctx context.Context, path string, opts RequestOptions, out any) error {
	return c.executor.Execute(ctx, path, opts, out)
}

// Paginate returns a pager over a listing endpoint of c.
func Paginate[T any](c *Client, path string, query url.Values, pageSize int) *Pager[T] {
	return NewPager[T](c.executor, path, query, pageSize)
}

// Config returns the resolved configuration.
func (c *Client) Config() Config { return c.cfg }

// Auth returns the token manager.
func (c *Client) Auth() *auth.Manager { return c.auth }

// InvalidateToken drops the cached token; the next request acquires a new one.
func (c *Client) InvalidateToken() { c.auth.InvalidateToken() }

// RateLimitStatus reports the remaining requests and used fraction of the window.
func (c *Client) RateLimitStatus() RateLimitStatus {
	return RateLimitStatus{Remaining: c.limiter.RemainingRequests(), Rate: c.limiter.CurrentRate()}
}
