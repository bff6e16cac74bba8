package clierr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/habedi/cwactl/pkg/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_ErrorAndUnwrap(t *testing.T) {
	root := errors.New("connection reset")
	err := New(Remote, "request failed", root)

	assert.Equal(t, "request failed", err.Error())
	assert.Same(t, root, err.Unwrap())
	assert.True(t, errors.Is(err, root))

	assert.Nil(t, New(Validation, "bad", nil).Unwrap())
}

func TestError_ErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(NotFound, "missing", nil))
	var target *Error
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, NotFound, target.Type)
}

func TestFromAPI(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType Type
		wantMsg  string
	}{
		{
			name:     "authentication",
			err:      apierr.New(apierr.Authentication, 401, "Authentication failed after token refresh", nil),
			wantType: Auth,
			wantMsg:  "list computers: authentication failed",
		},
		{
			name:     "forbidden",
			err:      apierr.New(apierr.Forbidden, 403, "Access forbidden - insufficient permissions", nil),
			wantType: Forbidden,
			wantMsg:  "lacks permission",
		},
		{
			name:     "not found",
			err:      fmt.Errorf("wrapped: %w", apierr.New(apierr.NotFound, 404, "Resource not found", nil)),
			wantType: NotFound,
			wantMsg:  "list computers: not found",
		},
		{
			name: "validation lists fields",
			err: &apierr.Error{Kind: apierr.Validation, StatusCode: 400, Message: "Validation failed",
				FieldErrors: []apierr.FieldError{{Field: "Name", Message: "Required"}}},
			wantType: Validation,
			wantMsg:  "Validation failed\n  Name: Required",
		},
		{
			name:     "rate limit",
			err:      &apierr.Error{Kind: apierr.RateLimit, StatusCode: 429, Message: "Rate limit exceeded and max retries reached", RetryAfter: 5 * time.Second},
			wantType: RateLimit,
			wantMsg:  "try again in 5s",
		},
		{
			name:     "server",
			err:      apierr.New(apierr.Server, 503, "Server error: 503 Service Unavailable", nil),
			wantType: Remote,
			wantMsg:  "Server error: 503 Service Unavailable (status 503)",
		},
		{
			name:     "plain error",
			err:      errors.New("disk full"),
			wantType: Internal,
			wantMsg:  "list computers: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromAPI("list computers", tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Contains(t, got.Message, tt.wantMsg)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestFromAPI_PassesThrough(t *testing.T) {
	assert.Nil(t, FromAPI("x", nil))

	ce := New(Config, "no config", nil)
	assert.Same(t, ce, FromAPI("x", fmt.Errorf("wrap: %w", ce)))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("x")))
	assert.Equal(t, 2, ExitCode(New(Validation, "x", nil)))
	assert.Equal(t, 2, ExitCode(New(Config, "x", nil)))
	assert.Equal(t, 3, ExitCode(fmt.Errorf("w: %w", New(Auth, "x", nil))))
	assert.Equal(t, 4, ExitCode(New(RateLimit, "x", nil)))
	assert.Equal(t, 1, ExitCode(New(Remote, "x", nil)))
}
