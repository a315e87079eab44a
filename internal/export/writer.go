package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/donaldgifford/meli-collector/internal/metrics"
)

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\uFEFF"

// FileTimeLayout is the timestamp prefix of export file names.
const FileTimeLayout = "20060102150405"

// ErrNoColumns is returned when none of the wanted columns exist in the data.
var ErrNoColumns = errors.New("no exportable columns in collected records")

// WriteCSV writes t to w as UTF-8 CSV with a byte-order mark and a header row.
func WriteCSV(w io.Writer, t *Table) error {
	if len(t.Columns) == 0 {
		return ErrNoColumns
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write byte-order mark: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv records: %w", err)
	}
	return nil
}

// FileName returns the export file name for a run started at ts.
func FileName(ts time.Time) string {
	return ts.Format(FileTimeLayout) + "_output.csv"
}

// WriteFile writes t into dir under a timestamped name and returns the path.
func WriteFile(dir string, ts time.Time, t *Table) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create directory %q: %w", dir, err)
	}

	path := filepath.Join(dir, FileName(ts))
	f, err := os.Create(path) //nolint:gosec // path built from configured output dir
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}

	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close csv file: %w", err)
	}

	metrics.ExportRowsTotal.Add(float64(len(t.Rows)))
	return path, nil
}
