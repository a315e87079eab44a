// Package domain defines the core types shared by the marketplace client,
// the collector and the exporter.
package domain

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Well-known record fields.
const (
	FieldID         = "id"
	FieldSearchTerm = "search_term"
)

// Record is the decoded item detail payload, keyed by field name. Values
// are whatever the JSON decoder produced: strings, json.Number, bools,
// nil, nested maps and slices.
type Record map[string]any

// ID returns the record identifier as a string, or "" when absent.
func (r Record) ID() string {
	switch v := r[FieldID].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// SearchTerm returns the term the record was collected for.
func (r Record) SearchTerm() string {
	s, _ := r[FieldSearchTerm].(string)
	return s
}

// WithSearchTerm returns a shallow copy of r tagged with term. The
// receiver is left untouched so cached payloads can be shared between terms.
func (r Record) WithSearchTerm(term string) Record {
	out := make(Record, len(r)+1)
	maps.Copy(out, r)
	out[FieldSearchTerm] = term
	return out
}

// TermStatus is the outcome of collecting a single search term.
type TermStatus string

// Term status constants.
const (
	// TermSucceeded means at least one record was collected.
	TermSucceeded TermStatus = "succeeded"
	// TermFailed means the search call itself failed.
	TermFailed TermStatus = "failed"
	// TermEmpty means the search returned no identifiers.
	TermEmpty TermStatus = "empty"
	// TermNoRecords means identifiers were found but every detail fetch
	// failed or was dropped.
	TermNoRecords TermStatus = "no_records"
)

// TermOutcome summarizes what happened to one search term.
type TermOutcome struct {
	Term        string     `json:"term"`
	Status      TermStatus `json:"status"`
	Found       int        `json:"found"`
	Collected   int        `json:"collected"`
	FailedItems []string   `json:"failed_items,omitempty"`
	Dropped     int        `json:"dropped,omitempty"`
	Error       string     `json:"error,omitempty"`
}
