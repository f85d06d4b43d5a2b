package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mbarros/fabricusage/internal/core"
	"github.com/mbarros/fabricusage/internal/powerbi"
)

func TestRun_ExecutesAllShapesInOrder(t *testing.T) {
	q := &fakeQuerier{responses: []core.Table{
		{Rows: []core.Row{{"Items[Item Id]": "i-1"}}},
		{Rows: []core.Row{{"Capacities[SKU]": "F64"}}},
		{Rows: []core.Row{{"Metrics By Item Operation And Day[CU (s)]": 1.0}}},
		{Rows: []core.Row{{"Timepoints[Date]": "2024-01-15"}}},
		// remaining calls are the windowed days, all empty
	}}

	now := time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)
	result, err := Run(context.Background(), q, "ds-1", 14, now)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// 4 static queries plus 15 day-scoped ones (trailing 14 days + today).
	if len(q.calls) != 19 {
		t.Errorf("calls = %d, want 19", len(q.calls))
	}

	wantKeys := []string{"items", "sku", "items_utilization", "timepoint_utilization", "timepoint_detail_utilization"}
	if len(result.Tables) != len(wantKeys) {
		t.Fatalf("tables = %d, want %d", len(result.Tables), len(wantKeys))
	}
	for i, tr := range result.Tables {
		if tr.Shape.Key != wantKeys[i] {
			t.Errorf("table %d = %s, want %s", i, tr.Shape.Key, wantKeys[i])
		}
	}

	if got := result.Tables[0].Table.Rows[0]["Item_Id"]; got != "i-1" {
		t.Errorf("items table not normalized, Item_Id = %v", got)
	}
	if got := result.Tables[1].Table.Rows[0]["SKU"]; got != "F64" {
		t.Errorf("sku table not normalized, SKU = %v", got)
	}
	if result.TotalRows() != 4 {
		t.Errorf("TotalRows = %d, want 4", result.TotalRows())
	}
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	q := &fakeQuerier{failAt: 2}

	_, err := Run(context.Background(), q, "ds-1", 14, time.Now())

	var queryErr *powerbi.QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("error = %v, want *powerbi.QueryError", err)
	}
	if len(q.calls) != 2 {
		t.Errorf("calls = %d, want 2", len(q.calls))
	}
}

func TestSaveAll_WritesFiveFiles(t *testing.T) {
	q := &fakeQuerier{responses: []core.Table{
		{Rows: []core.Row{{"Items[Item Id]": "i-1", "Items[Item name]": "Model"}}},
		{}, {}, {},
	}}

	result, err := Run(context.Background(), q, "ds-1", 2, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	if err := result.SaveAll(dir); err != nil {
		t.Fatalf("SaveAll() error: %v", err)
	}

	for _, name := range []string{
		"capacities_metrics_itens.csv",
		"capacities_metrics_sku.csv",
		"capacities_metrics_itens_utilization.csv",
		"capacities_metrics_timepoint_utilization.csv",
		"capacities_metrics_timepoint_detail_utilization.csv",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing output file %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "capacities_metrics_itens.csv"))
	if err != nil {
		t.Fatalf("reading items CSV: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "\xef\xbb\xbf") {
		t.Error("items CSV should start with a UTF-8 BOM")
	}
	if !strings.Contains(content, "Capacity_Id,Item_Id") {
		t.Errorf("items CSV header missing normalized columns: %q", content[:min(len(content), 120)])
	}
}

func TestSave_SingleTable(t *testing.T) {
	q := &fakeQuerier{}
	result, err := Run(context.Background(), q, "ds-1", 1, time.Now())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	dir := t.TempDir()
	if err := result.Save(dir, "sku"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "capacities_metrics_sku.csv")); err != nil {
		t.Errorf("missing sku CSV: %v", err)
	}

	if err := result.Save(dir, "nope"); err == nil {
		t.Error("unknown table key should error")
	}
}
