package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/donaldgifford/meli-collector/internal/collector"
	"github.com/donaldgifford/meli-collector/internal/meli"
	domain "github.com/donaldgifford/meli-collector/pkg/types"
)

const noDataMessage = "no data collected"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

// runSummary is the JSON form of a collect run.
type runSummary struct {
	RunID        string               `json:"run_id"`
	Records      int                  `json:"records"`
	ItemFailures int                  `json:"item_failures"`
	Dropped      int                  `json:"dropped"`
	FailedTerms  []string             `json:"failed_terms"`
	Terms        []domain.TermOutcome `json:"terms"`
	Export       string               `json:"export,omitempty"`
	Duration     string               `json:"duration"`
}

func newRunSummary(runID string, res *collector.Result, exportPath string) runSummary {
	failed := res.FailedTerms
	if failed == nil {
		failed = []string{}
	}
	return runSummary{
		RunID:        runID,
		Records:      len(res.Records),
		ItemFailures: res.ItemFailures,
		Dropped:      res.Dropped,
		FailedTerms:  failed,
		Terms:        res.Terms,
		Export:       exportPath,
		Duration:     res.Duration.Round(time.Millisecond).String(),
	}
}

func printSummary(w io.Writer, runID string, res *collector.Result, exportPath string) error {
	tw := newTabWriter(w)
	tw.writef("TERM\tSTATUS\tFOUND\tCOLLECTED\tFAILED\tDROPPED\n")
	for i := range res.Terms {
		t := &res.Terms[i]
		tw.writef("%s\t%s\t%d\t%d\t%d\t%d\n",
			t.Term,
			t.Status,
			t.Found,
			t.Collected,
			len(t.FailedItems),
			t.Dropped,
		)
	}
	if err := tw.finish(); err != nil {
		return err
	}

	tw = newTabWriter(w)
	tw.writef("\nRun ID:\t%s\n", runID)
	tw.writef("Records:\t%d\n", len(res.Records))
	tw.writef("Item failures:\t%d\n", res.ItemFailures)
	tw.writef("Duration:\t%s\n", res.Duration.Round(time.Millisecond))
	if len(res.FailedTerms) > 0 {
		tw.writef("Failed terms:\t%s\n", strings.Join(res.FailedTerms, ", "))
	}
	if exportPath != "" {
		tw.writef("Export:\t%s\n", exportPath)
	} else {
		tw.writef("Export:\t%s\n", noDataMessage)
	}
	return tw.finish()
}

func printSearchResult(w io.Writer, query string, res *meli.PaginateResult) error {
	tw := newTabWriter(w)
	tw.writef("#\tITEM ID\n")
	for i, id := range res.ItemIDs {
		tw.writef("%d\t%s\n", i+1, id)
	}
	tw.writef("\n%d items for %q (%d pages, %s)\n",
		len(res.ItemIDs), query, res.PagesUsed, res.StoppedAt)
	return tw.finish()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
