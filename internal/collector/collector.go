// Package collector runs the per-term search and detail-fetch loop and
// accumulates the records that made it through.
package collector

import (
	"context"
	"errors"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/donaldgifford/meli-collector/internal/meli"
	"github.com/donaldgifford/meli-collector/internal/metrics"
	domain "github.com/donaldgifford/meli-collector/pkg/types"
)

const defaultPageSize = 50

// Collector walks a list of search terms one at a time.
type Collector struct {
	client    meli.MarketplaceClient
	paginator *meli.Paginator
	log       *slog.Logger
	cache     *lru.Cache[string, domain.Record]

	pageSize int
	offset   int
	maxPages int
}

// Option configures the Collector.
type Option func(*Collector)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Collector) {
		c.log = l
	}
}

// WithPageSize sets the search limit per call.
func WithPageSize(n int) Option {
	return func(c *Collector) {
		c.pageSize = n
	}
}

// WithOffset sets the offset of the first search page.
func WithOffset(n int) Option {
	return func(c *Collector) {
		c.offset = n
	}
}

// WithMaxPages sets how many search pages are read per term.
func WithMaxPages(n int) Option {
	return func(c *Collector) {
		c.maxPages = n
	}
}

// WithDetailCache keeps up to size item details in memory so an item
// matched by several terms is fetched once. Sizes below 1 disable it.
func WithDetailCache(size int) Option {
	return func(c *Collector) {
		if size < 1 {
			c.cache = nil
			return
		}
		cache, err := lru.New[string, domain.Record](size)
		if err != nil {
			// lru.New only rejects non-positive sizes, handled above.
			return
		}
		c.cache = cache
	}
}

// New creates a Collector backed by client.
func New(client meli.MarketplaceClient, opts ...Option) *Collector {
	c := &Collector{
		client:   client,
		log:      slog.Default(),
		pageSize: defaultPageSize,
		maxPages: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.paginator = meli.NewPaginator(client,
		meli.WithPageSize(c.pageSize),
		meli.WithMaxPages(c.maxPages),
	)
	return c
}

// Run collects every term in order. Search failures mark the term failed
// and move on; detail failures only skip the item. The returned error is
// non-nil only when ctx ends the run early, in which case the partial
// result is returned with it.
func (c *Collector) Run(ctx context.Context, terms []string) (*Result, error) {
	res := &Result{StartedAt: time.Now()}
	defer func() {
		res.Duration = time.Since(res.StartedAt)
		metrics.RunDuration.Observe(res.Duration.Seconds())
	}()

	c.log.Info("starting collection", "terms", len(terms))

	for i, term := range terms {
		if err := ctx.Err(); err != nil {
			c.log.Warn("collection interrupted", "next_term", term, "error", err)
			return res, err
		}

		outcome, records, stopErr := c.collectTerm(ctx, term)

		if err := ctx.Err(); err != nil {
			c.log.Warn("collection interrupted", "term", term, "error", err)
			return res, err
		}

		res.add(outcome, records)

		if errors.Is(stopErr, meli.ErrDailyLimitReached) {
			c.log.Warn("daily API limit reached, skipping remaining terms",
				"term", term,
				"remaining", len(terms)-i-1,
			)
			for _, rest := range terms[i+1:] {
				res.add(domain.TermOutcome{
					Term:   rest,
					Status: domain.TermFailed,
					Error:  stopErr.Error(),
				}, nil)
			}
			break
		}
	}

	c.log.Info("collection complete",
		"records", len(res.Records),
		"item_failures", res.ItemFailures,
		"dropped", res.Dropped,
		"failed_terms", res.FailedTerms,
	)
	return res, nil
}

// collectTerm returns the term outcome, its tagged records, and an error
// when the whole run should stop (daily quota exhausted).
func (c *Collector) collectTerm(
	ctx context.Context,
	term string,
) (domain.TermOutcome, []domain.Record, error) {
	out := domain.TermOutcome{Term: term}
	c.log.Info("processing term", "term", term)

	page, err := c.paginator.Paginate(ctx, term, c.offset)
	if err != nil {
		c.log.Error("term search failed", "term", term, "error", err)
		out.Status = domain.TermFailed
		out.Error = err.Error()
		return out, nil, stopError(err)
	}

	out.Found = len(page.ItemIDs)
	if out.Found == 0 {
		c.log.Info("no items found", "term", term)
		out.Status = domain.TermEmpty
		return out, nil, nil
	}

	var (
		records []domain.Record
		stopErr error
	)
	for _, id := range page.ItemIDs {
		rec, err := c.fetch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			c.log.Error("item fetch failed", "term", term, "item_id", id, "error", err)
			metrics.ItemFailuresTotal.Inc()
			out.FailedItems = append(out.FailedItems, id)
			if stopErr = stopError(err); stopErr != nil {
				break
			}
			continue
		}

		if rec.ID() == "" {
			c.log.Warn("item without id dropped", "term", term, "item_id", id)
			metrics.RecordsDroppedTotal.Inc()
			out.Dropped++
			continue
		}

		c.log.Debug("collected item", "term", term, "item_id", id)
		records = append(records, rec.WithSearchTerm(term))
	}

	out.Collected = len(records)
	if out.Collected > 0 {
		out.Status = domain.TermSucceeded
		c.log.Info("term collected", "term", term, "items", out.Collected)
	} else {
		out.Status = domain.TermNoRecords
		c.log.Warn("no records collected for term", "term", term, "found", out.Found)
	}

	return out, records, stopErr
}

func (c *Collector) fetch(ctx context.Context, id string) (domain.Record, error) {
	if c.cache != nil {
		if rec, ok := c.cache.Get(id); ok {
			metrics.DetailCacheHitsTotal.Inc()
			return rec, nil
		}
	}

	rec, err := c.client.Item(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(id, rec)
	}
	return rec, nil
}

func stopError(err error) error {
	if errors.Is(err, meli.ErrDailyLimitReached) {
		return err
	}
	return nil
}
