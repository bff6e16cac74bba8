package auth

import (
	"context"

	"golang.org/x/oauth2"
)

type managerTokenSource struct {
	ctx context.Context
	m   *Manager
}

// TokenSource exposes the manager as an oauth2.TokenSource, so the cached
// token can back an oauth2.NewClient transport. The reported expiry already
// has ExpiryBuffer subtracted.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, m: m}
}

func (s *managerTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.m.getToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		Expiry:      tok.ExpiresAt.Add(-ExpiryBuffer),
	}, nil
}
