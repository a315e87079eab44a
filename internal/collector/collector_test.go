package collector_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/meli-collector/internal/collector"
	"github.com/donaldgifford/meli-collector/internal/meli"
	"github.com/donaldgifford/meli-collector/internal/meli/mocks"
	domain "github.com/donaldgifford/meli-collector/pkg/types"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func search(term string) meli.SearchRequest {
	return meli.SearchRequest{Query: term, Limit: 50}
}

func found(ids ...string) *meli.SearchResponse {
	return &meli.SearchResponse{ItemIDs: ids, Total: len(ids), Limit: 50}
}

func TestRun_SkipsFailedItem(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockMarketplaceClient(t)
	client.EXPECT().Search(mock.Anything, search("macbook")).Return(found("A", "B", "C"), nil).Once()
	client.EXPECT().Item(mock.Anything, "A").Return(domain.Record{"id": "A"}, nil).Once()
	client.EXPECT().Item(mock.Anything, "B").Return(nil, errors.New("Error 500 - Internal server error")).Once()
	client.EXPECT().Item(mock.Anything, "C").Return(domain.Record{"id": "C"}, nil).Once()

	log, buf := bufferLogger()
	res, err := collector.New(client, collector.WithLogger(log)).Run(context.Background(), []string{"macbook"})
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "A", res.Records[0].ID())
	assert.Equal(t, "C", res.Records[1].ID())
	for _, rec := range res.Records {
		assert.Equal(t, "macbook", rec.SearchTerm())
	}

	assert.Empty(t, res.FailedTerms)
	assert.Equal(t, 1, res.ItemFailures)
	require.Len(t, res.Terms, 1)
	assert.Equal(t, domain.TermSucceeded, res.Terms[0].Status)
	assert.Equal(t, []string{"B"}, res.Terms[0].FailedItems)
	assert.Contains(t, buf.String(), "item_id=B")
}

func TestRun_SearchFailureMarksTermFailed(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockMarketplaceClient(t)
	client.EXPECT().Search(mock.Anything, search("chromecast")).
		Return(nil, errors.New("Error 503 - Service unavailable")).Once()
	client.EXPECT().Search(mock.Anything, search("macbook")).Return(found("M1"), nil).Once()
	client.EXPECT().Item(mock.Anything, "M1").Return(domain.Record{"id": "M1", "title": "Macbook"}, nil).Once()

	log, _ := bufferLogger()
	res, err := collector.New(client, collector.WithLogger(log)).
		Run(context.Background(), []string{"chromecast", "macbook"})
	require.NoError(t, err)

	assert.Equal(t, []string{"chromecast"}, res.FailedTerms)
	assert.Equal(t, []string{"macbook"}, res.Succeeded())
	require.Len(t, res.Records, 1)
	assert.Equal(t, "macbook", res.Records[0].SearchTerm())

	require.Len(t, res.Terms, 2)
	assert.Equal(t, domain.TermFailed, res.Terms[0].Status)
	assert.Contains(t, res.Terms[0].Error, "Service unavailable")
}

func TestRun_TermOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setup      func(c *mocks.MockMarketplaceClient)
		wantStatus domain.TermStatus
		wantFailed bool
		wantDrop   int
	}{
		{
			name: "no search results",
			setup: func(c *mocks.MockMarketplaceClient) {
				c.EXPECT().Search(mock.Anything, search("term")).Return(found(), nil).Once()
			},
			wantStatus: domain.TermEmpty,
		},
		{
			name: "every detail fails",
			setup: func(c *mocks.MockMarketplaceClient) {
				c.EXPECT().Search(mock.Anything, search("term")).Return(found("X", "Y"), nil).Once()
				c.EXPECT().Item(mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Twice()
			},
			wantStatus: domain.TermNoRecords,
		},
		{
			name: "detail without id is dropped",
			setup: func(c *mocks.MockMarketplaceClient) {
				c.EXPECT().Search(mock.Anything, search("term")).Return(found("X"), nil).Once()
				c.EXPECT().Item(mock.Anything, "X").Return(domain.Record{"title": "orphan"}, nil).Once()
			},
			wantStatus: domain.TermNoRecords,
			wantDrop:   1,
		},
		{
			name: "search error",
			setup: func(c *mocks.MockMarketplaceClient) {
				c.EXPECT().Search(mock.Anything, search("term")).Return(nil, errors.New("boom")).Once()
			},
			wantStatus: domain.TermFailed,
			wantFailed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := mocks.NewMockMarketplaceClient(t)
			tt.setup(client)

			log, _ := bufferLogger()
			res, err := collector.New(client, collector.WithLogger(log)).Run(context.Background(), []string{"term"})
			require.NoError(t, err)

			assert.True(t, res.Empty())
			require.Len(t, res.Terms, 1)
			assert.Equal(t, tt.wantStatus, res.Terms[0].Status)
			assert.Equal(t, tt.wantFailed, len(res.FailedTerms) == 1)
			assert.Equal(t, tt.wantDrop, res.Dropped)
		})
	}
}

func TestRun_ZeroCollection(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockMarketplaceClient(t)
	client.EXPECT().Search(mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	log, _ := bufferLogger()
	terms := []string{"chromecast", "macbook", "monitor portátil", "Galaxy S23"}
	res, err := collector.New(client, collector.WithLogger(log)).Run(context.Background(), terms)
	require.NoError(t, err)

	assert.True(t, res.Empty())
	assert.Equal(t, terms, res.FailedTerms)
	client.AssertNumberOfCalls(t, "Search", len(terms))
}

func TestRun_SameItemAcrossTerms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cacheSize int
		wantCalls int
	}{
		{name: "without cache", cacheSize: 0, wantCalls: 2},
		{name: "negative size disables cache", cacheSize: -1, wantCalls: 2},
		{name: "with cache", cacheSize: 16, wantCalls: 1},
		{name: "single entry cache", cacheSize: 1, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := mocks.NewMockMarketplaceClient(t)
			client.EXPECT().Search(mock.Anything, search("chromecast")).Return(found("SHARED"), nil).Once()
			client.EXPECT().Search(mock.Anything, search("google tv")).Return(found("SHARED"), nil).Once()
			client.EXPECT().Item(mock.Anything, "SHARED").Return(domain.Record{"id": "SHARED"}, nil)

			log, _ := bufferLogger()
			c := collector.New(client, collector.WithLogger(log), collector.WithDetailCache(tt.cacheSize))
			res, err := c.Run(context.Background(), []string{"chromecast", "google tv"})
			require.NoError(t, err)

			require.Len(t, res.Records, 2)
			assert.Equal(t, "chromecast", res.Records[0].SearchTerm())
			assert.Equal(t, "google tv", res.Records[1].SearchTerm())
			client.AssertNumberOfCalls(t, "Item", tt.wantCalls)
		})
	}
}

func TestRun_PagingOptions(t *testing.T) {
	t.Parallel()

	client := mocks.NewMockMarketplaceClient(t)
	client.EXPECT().Search(mock.Anything, meli.SearchRequest{Query: "macbook", Limit: 2, Offset: 4}).
		Return(&meli.SearchResponse{ItemIDs: []string{"A", "B"}, Total: 10, HasMore: true}, nil).Once()
	client.EXPECT().Search(mock.Anything, meli.SearchRequest{Query: "macbook", Limit: 2, Offset: 6}).
		Return(&meli.SearchResponse{ItemIDs: []string{"C"}, Total: 7}, nil).Once()
	client.EXPECT().Item(mock.Anything, mock.Anything).RunAndReturn(
		func(_ context.Context, id string) (domain.Record, error) {
			return domain.Record{"id": id}, nil
		},
	).Times(3)

	log, _ := bufferLogger()
	c := collector.New(client,
		collector.WithLogger(log),
		collector.WithPageSize(2),
		collector.WithOffset(4),
		collector.WithMaxPages(5),
	)
	res, err := c.Run(context.Background(), []string{"macbook"})
	require.NoError(t, err)

	assert.Len(t, res.Records, 3)
	assert.Equal(t, 3, res.Terms[0].Found)
}

func TestRun_DailyLimitFailsRemainingTerms(t *testing.T) {
	t.Parallel()

	limitErr := fmt.Errorf("rate limit: %w (5/5)", meli.ErrDailyLimitReached)

	client := mocks.NewMockMarketplaceClient(t)
	client.EXPECT().Search(mock.Anything, search("chromecast")).Return(found("A", "B"), nil).Once()
	client.EXPECT().Item(mock.Anything, "A").Return(domain.Record{"id": "A"}, nil).Once()
	client.EXPECT().Item(mock.Anything, "B").Return(nil, limitErr).Once()

	log, buf := bufferLogger()
	res, err := collector.New(client, collector.WithLogger(log)).
		Run(context.Background(), []string{"chromecast", "macbook", "Galaxy S23"})
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, []string{"macbook", "Galaxy S23"}, res.FailedTerms)
	require.Len(t, res.Terms, 3)
	assert.Equal(t, domain.TermSucceeded, res.Terms[0].Status)
	assert.Contains(t, res.Terms[2].Error, "daily API limit")
	assert.Contains(t, buf.String(), "skipping remaining terms")
	client.AssertNumberOfCalls(t, "Search", 1)
}

func TestRun_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := mocks.NewMockMarketplaceClient(t)
	client.EXPECT().Search(mock.Anything, search("first")).Return(found("A"), nil).Once()
	client.EXPECT().Item(mock.Anything, "A").Return(domain.Record{"id": "A"}, nil).Once()
	client.EXPECT().Search(mock.Anything, search("second")).Return(found("B"), nil).Once()
	client.EXPECT().Item(mock.Anything, "B").RunAndReturn(
		func(context.Context, string) (domain.Record, error) {
			cancel()
			return nil, context.Canceled
		},
	).Once()

	log, _ := bufferLogger()
	res, err := collector.New(client, collector.WithLogger(log)).
		Run(ctx, []string{"first", "second", "third"})
	require.ErrorIs(t, err, context.Canceled)

	require.NotNil(t, res)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "first", res.Records[0].SearchTerm())
	assert.Len(t, res.Terms, 1)
}

// A term whose search keeps failing past the retry cap must not stop the
// terms around it.
func TestRun_RetryCapWithAPIClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/sites/MLA/search" && r.URL.Query().Get("q") == "broken":
			w.WriteHeader(http.StatusInternalServerError)
		case r.URL.Path == "/sites/MLA/search":
			_, _ = fmt.Fprintf(w, `{"results":[{"id":"MLA-%s"}],"paging":{"total":1,"offset":0,"limit":50}}`,
				r.URL.Query().Get("q"))
		default:
			_, _ = fmt.Fprintf(w, `{"id":%q,"title":"ok"}`, r.URL.Path[len("/items/"):])
		}
	}))
	t.Cleanup(srv.Close)

	log, _ := bufferLogger()
	client := meli.NewAPIClient(meli.StaticToken("tok"),
		meli.WithBaseURL(srv.URL),
		meli.WithLogger(log),
		meli.WithRetryPolicy(meli.RetryPolicy{
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			Multiplier:      2,
			MaxAttempts:     2,
		}),
	)

	res, err := collector.New(client, collector.WithLogger(log)).
		Run(context.Background(), []string{"ok", "broken", "fine"})
	require.NoError(t, err)

	assert.Equal(t, []string{"broken"}, res.FailedTerms)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "MLA-ok", res.Records[0].ID())
	assert.Equal(t, "fine", res.Records[1].SearchTerm())
	assert.Contains(t, res.Terms[1].Error, "Error 500 - Internal server error")
}
