package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed API call.
type Kind string

const (
	Authentication Kind = "authentication"
	Forbidden      Kind = "forbidden"
	NotFound       Kind = "not_found"
	Validation     Kind = "validation"
	RateLimit      Kind = "rate_limit"
	Server         Kind = "server"
	Generic        Kind = "generic"
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrForbidden      = errors.New("access forbidden")
	ErrNotFound       = errors.New("resource not found")
	ErrValidation     = errors.New("validation failed")
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrServer         = errors.New("server error")
)

var sentinels = map[Kind]error{
	Authentication: ErrAuthentication,
	Forbidden:      ErrForbidden,
	NotFound:       ErrNotFound,
	Validation:     ErrValidation,
	RateLimit:      ErrRateLimit,
	Server:         ErrServer,
}

// FieldError is one normalized entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the classified result of a failed request. StatusCode is 0 when
// no response was received.
type Error struct {
	Kind        Kind
	StatusCode  int
	Message     string
	Body        any    // decoded JSON payload or the body text
	RawBody     []byte // response body as received
	FieldErrors []FieldError
	RetryAfter  time.Duration
	Err         error // optional underlying error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// New constructs a classified error without a response payload.
func New(kind Kind, status int, msg string, err error) *Error {
	return &Error{Kind: kind, StatusCode: status, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }
func IsForbidden(err error) bool      { return errors.Is(err, ErrForbidden) }
func IsNotFound(err error) bool       { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool     { return errors.Is(err, ErrValidation) }
func IsRateLimited(err error) bool    { return errors.Is(err, ErrRateLimit) }
func IsServer(err error) bool         { return errors.Is(err, ErrServer) }

// DecodeBody returns the JSON value of raw, falling back to its text.
func DecodeBody(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}
