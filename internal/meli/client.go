// Package meli provides a Mercado Libre marketplace API client abstracted
// behind interfaces for testability.
package meli

import (
	"context"

	domain "github.com/donaldgifford/meli-collector/pkg/types"
)

// SearchRequest defines the parameters for a marketplace search.
type SearchRequest struct {
	Query  string
	Limit  int
	Offset int
}

// SearchResponse holds the identifiers returned by one search page.
type SearchResponse struct {
	ItemIDs []string
	Total   int
	Offset  int
	Limit   int
	HasMore bool
}

// MarketplaceClient defines the interface for interacting with the
// marketplace API.
type MarketplaceClient interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	Item(ctx context.Context, itemID string) (domain.Record, error)
}

// TokenProvider supplies the bearer credential attached to every request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider for a token obtained out of band.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token(_ context.Context) (string, error) {
	if t == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}
