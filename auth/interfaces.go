package auth

import "context"

// Fetcher defines the contract for any component that can obtain a fresh token
// from the token-issuance endpoint.
type Fetcher interface {
	FetchToken(ctx context.Context) (*Token, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (*Token, error)

func (f FetcherFunc) FetchToken(ctx context.Context) (*Token, error) { return f(ctx) }
