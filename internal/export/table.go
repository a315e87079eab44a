// Package export projects collected records onto a fixed column allow-list
// and writes them as a spreadsheet-friendly CSV file.
package export

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	domain "github.com/donaldgifford/meli-collector/pkg/types"
)

// DefaultColumns is the ordered allow-list of exported fields. Nested
// fields use dotted paths.
var DefaultColumns = []string{
	"id",
	"title",
	"price",
	"condition",
	"seller.id",
	"seller_id",
	"permalink",
	"warranty",
	"original_price",
	domain.FieldSearchTerm,
}

// Table is an ordered set of columns with one string row per record.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Flatten turns nested objects into dotted keys ("seller.id"). Arrays and
// scalars are kept as leaf values.
func Flatten(rec domain.Record) map[string]any {
	out := make(map[string]any, len(rec))
	flattenInto(out, "", rec)
	return out
}

func flattenInto(out map[string]any, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}

// AvailableColumns returns the members of wanted, in order, that appear
// as a key in at least one of rows.
func AvailableColumns(wanted []string, rows []map[string]any) []string {
	present := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			present[k] = struct{}{}
		}
	}

	cols := make([]string, 0, len(wanted))
	for _, c := range wanted {
		if _, ok := present[c]; ok && !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Project flattens records and keeps only the wanted columns present in
// the data. Cells missing from a record are left empty.
func Project(records []domain.Record, wanted []string) (*Table, error) {
	flat := make([]map[string]any, len(records))
	for i, rec := range records {
		flat[i] = Flatten(rec)
	}

	t := &Table{Columns: AvailableColumns(wanted, flat)}
	for i, row := range flat {
		cells := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			s, err := FormatValue(row[col])
			if err != nil {
				return nil, fmt.Errorf("record %d column %q: %w", i, col, err)
			}
			cells[j] = s
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

// FormatValue renders a decoded JSON value as a CSV cell.
func FormatValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", fmt.Errorf("encoding value: %w", err)
		}
		return string(b), nil
	}
}
