package meli

import (
	"context"
	"fmt"
)

const defaultMaxPages = 1

// Stop reasons reported by Paginate.
const (
	StoppedNoMoreResults = "no_more_results"
	StoppedMaxPages      = "max_pages"
)

// Paginator walks search result pages for a single term.
type Paginator struct {
	client   MarketplaceClient
	pageSize int
	maxPages int
}

// PaginatorOption configures the Paginator.
type PaginatorOption func(*Paginator)

// WithPageSize overrides the default page size.
func WithPageSize(size int) PaginatorOption {
	return func(p *Paginator) {
		p.pageSize = size
	}
}

// WithMaxPages overrides the default of a single page.
func WithMaxPages(n int) PaginatorOption {
	return func(p *Paginator) {
		p.maxPages = n
	}
}

// NewPaginator creates a new Paginator.
func NewPaginator(client MarketplaceClient, opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		client:   client,
		pageSize: defaultLimit,
		maxPages: defaultMaxPages,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.pageSize < 1 {
		p.pageSize = defaultLimit
	}
	if p.maxPages < 1 {
		p.maxPages = 1
	}
	return p
}

// PaginateResult holds the identifiers gathered across pages.
type PaginateResult struct {
	ItemIDs   []string `json:"item_ids"`
	PagesUsed int      `json:"pages_used"`
	StoppedAt string   `json:"stopped_at"`
}

// Paginate fetches identifiers for query starting at offset, stopping when
// a page comes back empty, the reported total is reached, or maxPages
// pages have been read. Any page error aborts the walk.
func (p *Paginator) Paginate(
	ctx context.Context,
	query string,
	offset int,
) (*PaginateResult, error) {
	result := &PaginateResult{}
	req := SearchRequest{Query: query, Limit: p.pageSize, Offset: offset}

	for page := range p.maxPages {
		resp, err := p.client.Search(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("searching page %d: %w", page, err)
		}

		result.PagesUsed++
		result.ItemIDs = append(result.ItemIDs, resp.ItemIDs...)

		if !resp.HasMore {
			result.StoppedAt = StoppedNoMoreResults
			return result, nil
		}

		req.Offset += p.pageSize
	}

	result.StoppedAt = StoppedMaxPages
	return result, nil
}
