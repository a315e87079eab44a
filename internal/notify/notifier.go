// Package notify defines the run report interface and its delivery
// implementations.
package notify

import (
	"context"
	"time"

	"github.com/donaldgifford/meli-collector/internal/collector"
	domain "github.com/donaldgifford/meli-collector/pkg/types"
)

// Run outcomes reported by Report.Outcome.
const (
	OutcomeComplete = "complete"
	OutcomePartial  = "partial"
	OutcomeEmpty    = "empty"
)

// Report summarizes one collection run.
type Report struct {
	RunID        string
	Terms        []domain.TermOutcome
	FailedTerms  []string
	Records      int
	ItemFailures int
	ExportPath   string
	Duration     time.Duration
}

// NewReport builds a Report from a finished run.
func NewReport(runID string, res *collector.Result, exportPath string) *Report {
	return &Report{
		RunID:        runID,
		Terms:        res.Terms,
		FailedTerms:  res.FailedTerms,
		Records:      len(res.Records),
		ItemFailures: res.ItemFailures,
		ExportPath:   exportPath,
		Duration:     res.Duration,
	}
}

// Outcome is empty when nothing was collected, partial when a term or an
// item failed, and complete otherwise.
func (r *Report) Outcome() string {
	switch {
	case r.Records == 0:
		return OutcomeEmpty
	case len(r.FailedTerms) > 0 || r.ItemFailures > 0:
		return OutcomePartial
	default:
		return OutcomeComplete
	}
}

// Notifier defines the interface for delivering run reports.
type Notifier interface {
	SendRunReport(ctx context.Context, report *Report) error
}
