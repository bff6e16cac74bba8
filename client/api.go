package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/habedi/cwactl/pkg/apierr"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	serverErrorRetryDelay = 1 * time.Second
	maxErrorBodySize      = 1 << 20
)

// TokenProvider supplies bearer tokens to the executor.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
}

// RequestOptions describes one logical request. Method defaults to GET.
// SkipAuth omits the Authorization header.
type RequestOptions struct {
	Method   string
	Body     any
	Query    url.Values
	SkipAuth bool
}

// Executor runs requests against the API with admission control,
// authentication, retries and error classification.
type Executor struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	tokens     TokenProvider
	limiter    *RateLimiter
	clock      clockwork.Clock
	logger     zerolog.Logger

	serverRetryDelay time.Duration
}

// NewExecutor creates an Executor sending requests to baseURL + path.
func NewExecutor(baseURL, clientID string, hc *http.Client, tokens TokenProvider, limiter *RateLimiter, clock clockwork.Clock) *Executor {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if limiter == nil {
		limiter = NewRateLimiter(RateLimitConfig{}, clock)
	}
	return &Executor{
		baseURL:          strings.TrimSuffix(baseURL, "/"),
		clientID:         clientID,
		httpClient:       hc,
		tokens:           tokens,
		limiter:          limiter,
		clock:            clock,
		logger:           log.Logger,
		serverRetryDelay: serverErrorRetryDelay,
	}
}

// Execute performs one logical request and decodes a JSON response into out
// (when out is non-nil). Rate-limit responses are retried up to the
// configured budget, a 401 is retried once after refreshing the token and a
// server error is retried once after a second. Terminal failures are
// *apierr.Error values.
func (e *Executor) Execute(ctx context.Context, path string, opts RequestOptions, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	target := e.baseURL + path
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var payload []byte
	if opts.Body != nil {
		var err error
		if payload, err = json.Marshal(opts.Body); err != nil {
			return apierr.New(apierr.Generic, 0, "failed to encode request body", err)
		}
	}

	reqLog := e.logger.With().Str("request_id", uuid.NewString()).
		Str("method", method).Str("path", path).Logger()

	var (
		attempt      int
		retried401   bool
		retriedError bool
	)
	for {
		if err := e.limiter.WaitForSlot(ctx); err != nil {
			return err
		}

		var token string
		if !opts.SkipAuth {
			var err error
			if token, err = e.tokens.GetToken(ctx); err != nil {
				return err
			}
		}

		req, err := e.newRequest(ctx, method, target, payload, token)
		if err != nil {
			return apierr.New(apierr.Generic, 0, "failed to create request", err)
		}

		e.limiter.RecordRequest()
		reqLog.Debug().Int("attempt", attempt).Msg("Sending request")
		resp, err := e.httpClient.Do(req)
		if err != nil {
			reqLog.Error().Err(err).Msg("Request failed")
			return apierr.New(apierr.Generic, 0, "request failed", err)
		}

		status := resp.StatusCode
		if status >= 200 && status < 300 {
			reqLog.Debug().Int("status", status).Msg("Request succeeded")
			return decodeResponse(resp, out)
		}

		raw := readErrorBody(resp)
		retryAfter := resp.Header.Get("Retry-After")
		reqLog.Debug().Int("status", status).Msg("Request returned error status")

		switch {
		case status == http.StatusBadRequest:
			return classifyBadRequest(raw)

		case status == http.StatusUnauthorized:
			if retried401 {
				return newAPIError(apierr.Authentication, status, "Authentication failed after token refresh", raw)
			}
			reqLog.Info().Msg("Token rejected, refreshing")
			if _, err := e.tokens.RefreshToken(ctx); err != nil {
				return err
			}
			retried401 = true

		case status == http.StatusForbidden:
			return newAPIError(apierr.Forbidden, status, "Access forbidden - insufficient permissions", raw)

		case status == http.StatusNotFound:
			return newAPIError(apierr.NotFound, status, "Resource not found", raw)

		case status == http.StatusTooManyRequests:
			if !e.limiter.ShouldRetry(attempt) {
				apiErr := newAPIError(apierr.RateLimit, status, "Rate limit exceeded and max retries reached", raw)
				apiErr.RetryAfter = e.limiter.Config().RetryAfter
				return apiErr
			}
			delay := e.limiter.ParseRetryAfter(retryAfter)
			e.limiter.HandleRateLimitError(attempt)
			if err := sleepCtx(ctx, e.clock, delay); err != nil {
				return err
			}
			attempt++

		case status >= 500:
			if retriedError {
				return newAPIError(apierr.Server, status,
					fmt.Sprintf("Server error: %d %s", status, http.StatusText(status)), raw)
			}
			reqLog.Warn().Int("status", status).Msg("Server error, retrying")
			if err := sleepCtx(ctx, e.clock, e.serverRetryDelay); err != nil {
				return err
			}
			retriedError = true

		default:
			return newAPIError(apierr.Generic, status,
				fmt.Sprintf("Request failed: %d %s", status, http.StatusText(status)), raw)
		}
	}
}

func (e *Executor) newRequest(ctx context.Context, method, target string, payload []byte, token string) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("ClientId", e.clientID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func isJSON(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}

// decodeResponse decodes a JSON body into out. Other bodies are discarded
// and out is left untouched.
func decodeResponse(resp *http.Response, out any) error {
	defer closeResponseBody(resp)
	if out == nil || !isJSON(resp.Header.Get("Content-Type")) {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.New(apierr.Generic, resp.StatusCode, "failed to read response body", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &apierr.Error{Kind: apierr.Generic, StatusCode: resp.StatusCode,
			Message: "failed to decode response body", RawBody: raw, Err: err}
	}
	return nil
}

func readErrorBody(resp *http.Response) []byte {
	defer closeResponseBody(resp)
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		log.Debug().Err(err).Msg("Failed to read error response body")
	}
	return raw
}

func closeResponseBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, maxErrorBodySize)
	_ = resp.Body.Close()
}

func newAPIError(kind apierr.Kind, status int, msg string, raw []byte) *apierr.Error {
	return &apierr.Error{Kind: kind, StatusCode: status, Message: msg, Body: apierr.DecodeBody(raw), RawBody: raw}
}

// classifyBadRequest tells field-level validation failures apart from
// rejected credentials or parameters; the API uses 400 for both.
func classifyBadRequest(raw []byte) error {
	body := apierr.DecodeBody(raw)
	if fields, ok := validationErrors(body); ok {
		return &apierr.Error{Kind: apierr.Validation, StatusCode: http.StatusBadRequest,
			Message: "Validation failed", Body: body, RawBody: raw, FieldErrors: fields}
	}
	return &apierr.Error{Kind: apierr.Authentication, StatusCode: http.StatusBadRequest,
		Message: "Bad request - invalid credentials or parameters", Body: body, RawBody: raw}
}

// validationErrors normalizes the ModelState and Errors/errors body shapes.
// ok is false when body has neither.
func validationErrors(body any) (fields []apierr.FieldError, ok bool) {
	m, isObj := body.(map[string]any)
	if !isObj {
		return nil, false
	}

	if ms, isMap := m["ModelState"].(map[string]any); isMap {
		keys := make([]string, 0, len(ms))
		for k := range ms {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields = []apierr.FieldError{}
		for _, k := range keys {
			msgs, isArr := ms[k].([]any)
			if !isArr {
				continue
			}
			for _, msg := range msgs {
				fields = append(fields, apierr.FieldError{Field: k, Message: stringify(msg)})
			}
		}
		return fields, true
	}

	for _, key := range []string{"Errors", "errors"} {
		arr, isArr := m[key].([]any)
		if !isArr {
			continue
		}
		fields = make([]apierr.FieldError, 0, len(arr))
		for _, item := range arr {
			obj, isObj := item.(map[string]any)
			if !isObj {
				fields = append(fields, apierr.FieldError{Field: "unknown", Message: stringify(item)})
				continue
			}
			fields = append(fields, apierr.FieldError{
				Field:   firstString(obj, "unknown", "field", "Field", "property"),
				Message: firstString(obj, "Unknown error", "message", "Message", "error"),
			})
		}
		return fields, true
	}
	return nil, false
}

func firstString(obj map[string]any, fallback string, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return stringify(v)
		}
	}
	return fallback
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case map[string]any, []any:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
