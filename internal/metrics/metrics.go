// Package metrics defines Prometheus metrics for meli-collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meli"

// Endpoint label values.
const (
	EndpointSearch = "search"
	EndpointItem   = "item"
)

// Marketplace API metrics.
var (
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total marketplace API attempts by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of marketplace API attempts in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	APIRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_retries_total",
		Help:      "Total retries scheduled after a failed attempt.",
	}, []string{"endpoint"})

	APIDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_daily_usage",
		Help:      "Current API call count within the rolling 24-hour window.",
	})

	APIDailyRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_daily_remaining",
		Help:      "API calls left in the rolling 24-hour window when a daily limit is set.",
	})

	APIDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_daily_limit_hits_total",
		Help:      "Total number of times the daily API limit was reached.",
	})
)

// Collection metrics.
var (
	TermsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collection_terms_total",
		Help:      "Search terms processed, by outcome.",
	}, []string{"status"})

	ItemsCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collection_items_total",
		Help:      "Total item records collected.",
	})

	ItemFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collection_item_failures_total",
		Help:      "Total item detail fetches that failed and were skipped.",
	})

	RecordsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collection_records_dropped_total",
		Help:      "Total item records dropped for lacking an id.",
	})

	DetailCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collection_detail_cache_hits_total",
		Help:      "Total item details served from the in-run cache.",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "collection_run_duration_seconds",
		Help:      "Duration of collection runs in seconds.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~34m
	})
)

// Export metrics.
var (
	ExportRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "export_rows_total",
		Help:      "Total rows written to export files.",
	})
)

// Notification metrics.
var (
	NotificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of run report deliveries in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	NotificationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Total number of run report delivery failures.",
	})
)

// WriteTextfile dumps every registered metric in the Prometheus text
// format to path, for pickup by the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
