package clierr

import (
	"errors"

	"github.com/habedi/cwactl/pkg/apierr"
)

// Type categorizes a CLI-facing error for consistent messaging & potential exit codes.
type Type string

const (
	Validation Type = "validation"
	NotFound   Type = "not_found"
	Auth       Type = "auth"
	Forbidden  Type = "forbidden"
	RateLimit  Type = "rate_limit"
	Remote     Type = "remote"
	Config     Type = "config"
	Internal   Type = "internal"
)

// Error is a structured user-facing error.
type Error struct {
	Type    Type
	Message string
	Err     error // optional underlying error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// New constructs a new CLI Error.
func New(t Type, msg string, err error) *Error { return &Error{Type: t, Message: msg, Err: err} }

// FromAPI wraps err with a message suited to the terminal. API errors are
// mapped by kind; anything else becomes Internal. A nil err gives nil.
func FromAPI(action string, err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		return New(Internal, action+": "+err.Error(), err)
	}
	switch apiErr.Kind {
	case apierr.Authentication:
		return New(Auth, action+": authentication failed; check the credentials in the config file", err)
	case apierr.Forbidden:
		return New(Forbidden, action+": the integrator account lacks permission", err)
	case apierr.NotFound:
		return New(NotFound, action+": not found", err)
	case apierr.Validation:
		msg := action + ": " + apiErr.Message
		for _, f := range apiErr.FieldErrors {
			msg += "\n  " + f.Field + ": " + f.Message
		}
		return New(Validation, msg, err)
	case apierr.RateLimit:
		return New(RateLimit, action+": rate limit exceeded, try again in "+apiErr.RetryAfter.String(), err)
	default:
		return New(Remote, action+": "+apiErr.Error(), err)
	}
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *Error
	if !errors.As(err, &ce) {
		return 1
	}
	switch ce.Type {
	case Validation, Config:
		return 2
	case Auth, Forbidden:
		return 3
	case RateLimit:
		return 4
	default:
		return 1
	}
}
