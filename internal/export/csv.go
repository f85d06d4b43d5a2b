// Package export persists normalized tables as UTF-8 CSV files with a
// byte-order mark, the encoding the original capacity-metrics consumers
// expect.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/mbarros/fabricusage/internal/core"
)

// WriteError reports a failed destination-directory creation or file
// write. Persistence failure is non-fatal to an extraction: the tables
// remain previewable and individually re-savable.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("export: writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteTable writes the table to path as BOM-prefixed, comma-delimited
// CSV with the table's columns as the header row. Cell values follow the
// coercion rules of core.FormatValue. A table with no columns (an
// all-empty query window) produces a file holding only the BOM.
func WriteTable(path string, t core.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	if err := writeTable(f, t); err != nil {
		f.Close()
		return &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func writeTable(f *os.File, t core.Table) error {
	if _, err := f.Write(utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if len(t.Columns) > 0 {
		if err := w.Write(t.Columns); err != nil {
			return err
		}
	}
	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			record[i] = row.Cell(col)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ReadTable reads a CSV file written by WriteTable. Every cell comes back
// as a string; the round trip preserves rows and header order under the
// FormatValue coercion rules.
func ReadTable(path string) (core.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Table{}, fmt.Errorf("export: reading %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return core.Table{}, fmt.Errorf("export: parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return core.Table{}, nil
	}

	table := core.Table{Columns: records[0]}
	for _, record := range records[1:] {
		row := make(core.Row, len(record))
		for i, cell := range record {
			if i < len(table.Columns) {
				row[table.Columns[i]] = cell
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
