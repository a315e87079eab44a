// Package main implements a mock Mercado Libre API server for local development.
// It serves search results and item details from a JSON fixture so the
// collector can be run end to end without real credentials, and can be told
// to fail specific items or queries to exercise the retry and skip paths.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

type fixtureFile struct {
	SiteID string            `json:"site_id"`
	Items  []json.RawMessage `json:"items"`
}

type indexedItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	raw   json.RawMessage
}

type catalog struct {
	items []indexedItem
	byID  map[string]json.RawMessage
}

type paging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type searchResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type searchResponse struct {
	SiteID  string         `json:"site_id"`
	Query   string         `json:"query"`
	Paging  paging         `json:"paging"`
	Results []searchResult `json:"results"`
}

// failures maps an item id or a search query to the status it answers with.
type failures map[string]int

func (f failures) String() string {
	keys := make([]string, 0, len(f))
	for k, v := range f {
		keys = append(keys, fmt.Sprintf("%s=%d", k, v))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func (f failures) Set(s string) error {
	key, code, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected KEY=STATUS, got %q", s)
	}
	status, err := strconv.Atoi(code)
	if err != nil || status < 400 || status > 599 {
		return fmt.Errorf("invalid status %q for %s", code, key)
	}
	f[key] = status
	return nil
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixturePath := flag.String("fixture", "tools/mock-server/testdata/items.json", "path to item fixture")
	fail := failures{}
	flag.Var(fail, "fail", "answer KEY=STATUS for an item id or search query (repeatable)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cat, err := loadCatalog(*fixturePath)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixturePath, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "items", len(cat.items), "failures", fail.String())

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, cat, fail)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, cat *catalog, fail failures) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /sites/{site}/search", requireToken(logger, searchHandler(logger, cat, fail)))
	mux.Handle("GET /items/{id}", requireToken(logger, itemHandler(logger, cat, fail)))
	return mux
}

func loadCatalog(path string) (*catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var f fixtureFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}

	cat := &catalog{byID: make(map[string]json.RawMessage, len(f.Items))}
	for i, raw := range f.Items {
		var it indexedItem
		if err := json.Unmarshal(raw, &it); err != nil {
			return nil, fmt.Errorf("parsing fixture item %d: %w", i, err)
		}
		if it.ID == "" {
			return nil, fmt.Errorf("fixture item %d has no id", i)
		}
		it.raw = raw
		cat.items = append(cat.items, it)
		cat.byID[it.ID] = raw
	}
	return cat, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func requireToken(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			logger.Warn("request missing bearer token", "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "invalid access token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(map[string]any{
		"message": message,
		"error":   strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		"status":  status,
		"cause":   []any{},
	})
}

func searchHandler(logger *slog.Logger, cat *catalog, fail failures) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if status, ok := fail[query]; ok {
			logger.Info("injected search failure", "query", query, "status", status)
			writeError(w, status, "injected failure")
			return
		}

		limit := 50
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		offset := 0
		if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
			offset = v
		}

		q := strings.ToLower(query)
		var matched []searchResult
		for _, it := range cat.items {
			if q == "" || strings.Contains(strings.ToLower(it.Title), q) {
				matched = append(matched, searchResult{ID: it.ID, Title: it.Title})
			}
		}

		total := len(matched)
		if offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[offset:min(offset+limit, len(matched))]
		}
		if matched == nil {
			matched = []searchResult{}
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(searchResponse{
			SiteID:  r.PathValue("site"),
			Query:   query,
			Paging:  paging{Total: total, Offset: offset, Limit: limit},
			Results: matched,
		})
		logger.Info("search", "query", query, "matched", total, "returned", len(matched), "offset", offset, "limit", limit)
	}
}

func itemHandler(logger *slog.Logger, cat *catalog, fail failures) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if status, ok := fail[id]; ok {
			logger.Info("injected item failure", "item_id", id, "status", status)
			writeError(w, status, "injected failure")
			return
		}

		raw, ok := cat.byID[id]
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Item with id %s not found", id))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		w.Write(raw)
	}
}
