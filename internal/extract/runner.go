package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mbarros/fabricusage/internal/core"
	"github.com/mbarros/fabricusage/internal/export"
)

// TableResult pairs a query shape with its normalized result.
type TableResult struct {
	Shape Shape
	Table core.Table
}

// Result is one full extraction: the five normalized tables in their
// fixed execution order plus the detail window that was queried.
type Result struct {
	DatasetID string
	Start     time.Time
	End       time.Time
	Tables    []TableResult
}

// Run executes all five query shapes against the dataset: the four static
// shapes first, then the day-bucketed timepoint detail over the trailing
// window ending at now's date. The first failure aborts the run.
func Run(ctx context.Context, q Querier, datasetID string, windowDays int, now time.Time) (*Result, error) {
	result := &Result{DatasetID: datasetID}

	for _, shape := range []Shape{Items, SKU, ItemsUtilization, TimepointUtilization} {
		table, err := q.ExecuteQuery(ctx, datasetID, shape.Spec())
		if err != nil {
			return nil, err
		}
		result.Tables = append(result.Tables, TableResult{Shape: shape, Table: Normalize(table, shape)})
	}

	result.Start, result.End = core.TrailingWindow(windowDays, now)
	detail, err := ExecuteWindowed(ctx, q, datasetID, result.Start, result.End)
	if err != nil {
		return nil, err
	}
	result.Tables = append(result.Tables, TableResult{Shape: TimepointDetail, Table: detail})

	return result, nil
}

// SaveAll writes every table to destDir under its shape's filename. A
// failed write does not abort the remaining files; the joined error is
// returned so the caller can surface it while keeping the data
// previewable.
func (r *Result) SaveAll(destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return &export.WriteError{Path: destDir, Err: err}
	}

	var errs []error
	for _, tr := range r.Tables {
		if err := export.WriteTable(filepath.Join(destDir, tr.Shape.Filename), tr.Table); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save writes a single table to destDir under its shape's filename.
func (r *Result) Save(destDir, key string) error {
	for _, tr := range r.Tables {
		if tr.Shape.Key == key {
			return export.WriteTable(filepath.Join(destDir, tr.Shape.Filename), tr.Table)
		}
	}
	return errors.New("extract: unknown table " + key)
}

// TotalRows sums the row counts across all tables.
func (r *Result) TotalRows() int {
	total := 0
	for _, tr := range r.Tables {
		total += len(tr.Table.Rows)
	}
	return total
}
