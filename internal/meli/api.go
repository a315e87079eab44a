package meli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/donaldgifford/meli-collector/internal/metrics"
	domain "github.com/donaldgifford/meli-collector/pkg/types"
)

const (
	defaultBaseURL = "https://api.mercadolibre.com"
	defaultSiteID  = "MLA"
	defaultLimit   = 50
	defaultTimeout = 30 * time.Second
)

// APIClient implements MarketplaceClient against the public REST API.
type APIClient struct {
	tokens      TokenProvider
	baseURL     string
	siteID      string
	client      *http.Client
	rateLimiter *RateLimiter
	retry       RetryPolicy
	log         *slog.Logger
}

// APIOption configures the APIClient.
type APIOption func(*APIClient)

// WithBaseURL overrides the default API host.
func WithBaseURL(u string) APIOption {
	return func(c *APIClient) {
		c.baseURL = u
	}
}

// WithSiteID overrides the default marketplace site (MLA, MLB, ...).
func WithSiteID(site string) APIOption {
	return func(c *APIClient) {
		c.siteID = site
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) APIOption {
	return func(c *APIClient) {
		c.client = hc
	}
}

// WithRateLimiter makes every HTTP attempt wait on r first.
func WithRateLimiter(r *RateLimiter) APIOption {
	return func(c *APIClient) {
		c.rateLimiter = r
	}
}

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) APIOption {
	return func(c *APIClient) {
		c.retry = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) APIOption {
	return func(c *APIClient) {
		c.log = l
	}
}

// NewAPIClient creates a new marketplace API client.
func NewAPIClient(tokens TokenProvider, opts ...APIOption) *APIClient {
	c := &APIClient{
		tokens:  tokens,
		baseURL: defaultBaseURL,
		siteID:  defaultSiteID,
		client:  &http.Client{Timeout: defaultTimeout},
		retry:   DefaultRetryPolicy(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchAPIResponse struct {
	Results *[]struct {
		ID string `json:"id"`
	} `json:"results"`
	Paging struct {
		Total  int `json:"total"`
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	} `json:"paging"`
}

// Search implements MarketplaceClient.Search. The call is retried
// according to the client's RetryPolicy.
func (c *APIClient) Search(
	ctx context.Context,
	req SearchRequest,
) (*SearchResponse, error) {
	u := c.buildSearchURL(req)

	return withRetry(ctx, c.retry, c.log, metrics.EndpointSearch, func() (*SearchResponse, error) {
		body, err := c.get(ctx, metrics.EndpointSearch, u)
		if err != nil {
			return nil, classify(opSearch, err)
		}
		resp, err := parseSearchResponse(body)
		if err != nil {
			return nil, newGenericError(opSearch, err)
		}
		return resp, nil
	})
}

// Item implements MarketplaceClient.Item, returning the full decoded
// detail payload.
func (c *APIClient) Item(ctx context.Context, itemID string) (domain.Record, error) {
	u := c.baseURL + "/items/" + url.PathEscape(itemID)

	return withRetry(ctx, c.retry, c.log, metrics.EndpointItem, func() (domain.Record, error) {
		body, err := c.get(ctx, metrics.EndpointItem, u)
		if err != nil {
			return nil, classify(opItem, err)
		}
		rec, err := parseItemResponse(body)
		if err != nil {
			return nil, newGenericError(opItem, err)
		}
		return rec, nil
	})
}

func (c *APIClient) get(ctx context.Context, endpoint, u string) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.APIDailyLimitHits.Inc()
			}
			return nil, fmt.Errorf("rate limit: %w", err)
		}
		metrics.APIDailyUsage.Set(float64(c.rateLimiter.DailyCount()))
		if rem := c.rateLimiter.Remaining(); rem >= 0 {
			metrics.APIDailyRemaining.Set(float64(rem))
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting auth token: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newStatusError(resp.StatusCode, body)
	}

	return body, nil
}

func (c *APIClient) buildSearchURL(req SearchRequest) string {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(max(req.Offset, 0)))

	return c.baseURL + "/sites/" + url.PathEscape(c.siteID) + "/search?" + params.Encode()
}

// classify keeps translated HTTP errors as they are and wraps everything
// else as a generic failure of op.
func classify(op string, err error) error {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce
	}
	return newGenericError(op, err)
}

func parseSearchResponse(body []byte) (*SearchResponse, error) {
	var apiResp searchAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	if apiResp.Results == nil {
		return nil, errors.New("parsing search response: missing results")
	}

	results := *apiResp.Results
	ids := make([]string, 0, len(results))
	for i, r := range results {
		if r.ID == "" {
			return nil, fmt.Errorf("search result %d has no id", i)
		}
		ids = append(ids, r.ID)
	}

	p := apiResp.Paging
	return &SearchResponse{
		ItemIDs: ids,
		Total:   p.Total,
		Offset:  p.Offset,
		Limit:   p.Limit,
		HasMore: len(ids) > 0 && p.Offset+len(ids) < p.Total,
	}, nil
}

func parseItemResponse(body []byte) (domain.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var rec domain.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("parsing item response: %w", err)
	}
	if rec == nil {
		return nil, errors.New("parsing item response: empty body")
	}
	return rec, nil
}
