package collector

import (
	"time"

	"github.com/donaldgifford/meli-collector/internal/metrics"
	domain "github.com/donaldgifford/meli-collector/pkg/types"
)

// Result is everything a run produced.
type Result struct {
	Records      []domain.Record
	Terms        []domain.TermOutcome
	FailedTerms  []string
	ItemFailures int
	Dropped      int
	StartedAt    time.Time
	Duration     time.Duration
}

// Empty reports whether no record was collected at all.
func (r *Result) Empty() bool {
	return len(r.Records) == 0
}

// Succeeded returns the terms that contributed at least one record.
func (r *Result) Succeeded() []string {
	var terms []string
	for i := range r.Terms {
		if r.Terms[i].Status == domain.TermSucceeded {
			terms = append(terms, r.Terms[i].Term)
		}
	}
	return terms
}

func (r *Result) add(out domain.TermOutcome, records []domain.Record) {
	r.Terms = append(r.Terms, out)
	metrics.TermsTotal.WithLabelValues(string(out.Status)).Inc()

	if out.Status == domain.TermFailed {
		r.FailedTerms = append(r.FailedTerms, out.Term)
	}

	r.ItemFailures += len(out.FailedItems)
	r.Dropped += out.Dropped

	if len(records) > 0 {
		r.Records = append(r.Records, records...)
		metrics.ItemsCollectedTotal.Add(float64(len(records)))
	}
}
