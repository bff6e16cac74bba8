package auth

import (
	"errors"
	"time"
)

// Method selects the credential shape sent to the token endpoint.
type Method string

const (
	MethodIntegrator Method = "integrator"
	MethodUser       Method = "user"
)

// ExpiryBuffer is how long before its expiration a token stops being used.
const ExpiryBuffer = 2 * time.Minute

// Credentials identify the caller to the token endpoint. TwoFactorCode is
// only sent for MethodUser.
type Credentials struct {
	Method        Method
	Username      string
	Password      string
	TwoFactorCode string
}

// Validate checks that the fields required by the credential method are set.
func (c Credentials) Validate() error {
	switch c.Method {
	case MethodIntegrator:
		if c.Username == "" || c.Password == "" {
			return errors.New("integratorUsername and integratorPassword are required for integrator authentication")
		}
	case MethodUser:
		if c.Username == "" || c.Password == "" {
			return errors.New("username and password are required for user authentication")
		}
	default:
		return errors.New("Invalid authentication method")
	}
	return nil
}

type tokenRequest struct {
	UserName          string `json:"UserName"`
	Password          string `json:"Password"`
	TwoFactorPasscode string `json:"TwoFactorPasscode,omitempty"`
}

func (c Credentials) payload() tokenRequest {
	req := tokenRequest{UserName: c.Username, Password: c.Password}
	if c.Method == MethodUser {
		req.TwoFactorPasscode = c.TwoFactorCode
	}
	return req
}

// Token is a bearer token issued by the token endpoint.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// ValidAt reports whether the token can still be used at now, honouring
// ExpiryBuffer.
func (t *Token) ValidAt(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return now.Before(t.ExpiresAt.Add(-ExpiryBuffer))
}
