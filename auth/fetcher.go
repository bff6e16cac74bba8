package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/habedi/cwactl/pkg/apierr"
	"github.com/rs/zerolog/log"
)

const maxTokenResponseSize = 1 << 20

// zone-less form some servers use for ExpirationDate; read as UTC
const localDateLayout = "2006-01-02T15:04:05.999999999"

// HTTPFetcher exchanges credentials for a token at TokenURL.
type HTTPFetcher struct {
	TokenURL    string
	ClientID    string
	Credentials Credentials
	HTTPClient  *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A nil client gets a 30 second timeout.
func NewHTTPFetcher(tokenURL, clientID string, creds Credentials, hc *http.Client) *HTTPFetcher {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{TokenURL: tokenURL, ClientID: clientID, Credentials: creds, HTTPClient: hc}
}

type tokenResponse struct {
	AccessToken    string `json:"AccessToken"`
	TokenType      string `json:"TokenType"`
	ExpirationDate string `json:"ExpirationDate"`
}

// FetchToken posts the credential payload and parses the issued token.
// Every failure is an apierr Authentication error.
func (f *HTTPFetcher) FetchToken(ctx context.Context) (*Token, error) {
	payload, err := json.Marshal(f.Credentials.payload())
	if err != nil {
		return nil, apierr.New(apierr.Authentication, 0, "failed to encode token request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, apierr.New(apierr.Authentication, 0, "failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("ClientId", f.ClientID)

	log.Debug().Str("url", f.TokenURL).Str("method", string(f.Credentials.Method)).Msg("Requesting access token")
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", f.TokenURL).Msg("Token request failed")
		return nil, apierr.New(apierr.Authentication, 0, "Authentication failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return nil, apierr.New(apierr.Authentication, resp.StatusCode, "failed to read token response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Msg("Token endpoint rejected credentials")
		return nil, &apierr.Error{
			Kind:       apierr.Authentication,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Authentication failed: %s", http.StatusText(resp.StatusCode)),
			Body:       apierr.DecodeBody(raw),
			RawBody:    raw,
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, &apierr.Error{Kind: apierr.Authentication, StatusCode: resp.StatusCode,
			Message: "invalid token response", RawBody: raw, Body: string(raw), Err: err}
	}
	if tr.AccessToken == "" {
		return nil, &apierr.Error{Kind: apierr.Authentication, StatusCode: resp.StatusCode,
			Message: "token response has no AccessToken", RawBody: raw, Body: apierr.DecodeBody(raw)}
	}

	expiresAt, err := parseExpiration(tr.ExpirationDate)
	if err != nil {
		return nil, &apierr.Error{Kind: apierr.Authentication, StatusCode: resp.StatusCode,
			Message: "invalid token expiration date", RawBody: raw, Body: apierr.DecodeBody(raw), Err: err}
	}

	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	log.Debug().Time("expires_at", expiresAt).Msg("Access token acquired")
	return &Token{AccessToken: tr.AccessToken, TokenType: tokenType, ExpiresAt: expiresAt}, nil
}

func parseExpiration(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(localDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized expiration date %q", s)
	}
	return t, nil
}
