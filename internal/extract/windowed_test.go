package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mbarros/fabricusage/internal/core"
	"github.com/mbarros/fabricusage/internal/powerbi"
)

type fakeQuerier struct {
	responses []core.Table
	failAt    int // 1-based call index that fails, 0 = never
	calls     []powerbi.QuerySpec
}

func (f *fakeQuerier) ExecuteQuery(_ context.Context, _ string, spec powerbi.QuerySpec) (core.Table, error) {
	f.calls = append(f.calls, spec)
	if f.failAt == len(f.calls) {
		return core.Table{}, &powerbi.QueryError{Status: 500, Err: errors.New("boom")}
	}
	if len(f.responses) == 0 {
		return core.Table{}, nil
	}
	table := f.responses[0]
	f.responses = f.responses[1:]
	return table, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExecuteWindowed_OneQueryPerDayAscending(t *testing.T) {
	q := &fakeQuerier{}

	_, err := ExecuteWindowed(context.Background(), q, "ds-1", day(2024, 1, 1), day(2024, 1, 3))
	if err != nil {
		t.Fatalf("ExecuteWindowed() error: %v", err)
	}

	if len(q.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(q.calls))
	}
	wantFilters := []string{"DATE(2024, 1, 1)", "DATE(2024, 1, 2)", "DATE(2024, 1, 3)"}
	for i, call := range q.calls {
		if !strings.Contains(call.Query, wantFilters[i]) {
			t.Errorf("call %d query missing %s", i, wantFilters[i])
		}
		if !strings.Contains(call.Query, "TIME(23, 59, 0)") {
			t.Errorf("call %d query missing end-of-day timepoint", i)
		}
		if !call.IncludeNulls {
			t.Errorf("call %d should serialize nulls", i)
		}
	}
}

func TestExecuteWindowed_AllEmptyDays(t *testing.T) {
	q := &fakeQuerier{}

	table, err := ExecuteWindowed(context.Background(), q, "ds-1", day(2024, 1, 1), day(2024, 1, 3))
	if err != nil {
		t.Fatalf("ExecuteWindowed() error: %v", err)
	}

	if !table.Empty() {
		t.Errorf("rows = %d, want 0", len(table.Rows))
	}
	if len(table.Columns) != 0 {
		t.Errorf("an all-empty window should skip normalization, columns = %v", table.Columns)
	}
}

func TestExecuteWindowed_StampsQueryDatePerContributingDay(t *testing.T) {
	q := &fakeQuerier{responses: []core.Table{
		{Rows: []core.Row{
			{"Timepoint Background Detail[Capacity Id]": "cap-1", "[Total_CUs]": 10.0},
			{"Timepoint Background Detail[Capacity Id]": "cap-2", "[Total_CUs]": 20.0},
		}},
		{}, // day 2 yields nothing
		{Rows: []core.Row{
			{"Timepoint Background Detail[Capacity Id]": "cap-1", "[Total_CUs]": 5.0},
		}},
	}}

	table, err := ExecuteWindowed(context.Background(), q, "ds-1", day(2024, 1, 1), day(2024, 1, 3))
	if err != nil {
		t.Fatalf("ExecuteWindowed() error: %v", err)
	}

	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(table.Rows))
	}
	wantDates := []string{"2024-01-01", "2024-01-01", "2024-01-03"}
	for i, row := range table.Rows {
		if row[QueryDateColumn] != wantDates[i] {
			t.Errorf("row %d Query_Date = %v, want %s", i, row[QueryDateColumn], wantDates[i])
		}
	}

	// Renames applied once over the combined table.
	if table.Rows[0]["Capacity_Id"] != "cap-1" {
		t.Errorf("first row Capacity_Id = %v", table.Rows[0]["Capacity_Id"])
	}
	if table.Rows[2]["Total_CUs"] != 5.0 {
		t.Errorf("last row Total_CUs = %v", table.Rows[2]["Total_CUs"])
	}
	if table.Columns[len(table.Columns)-1] != QueryDateColumn {
		t.Errorf("Query_Date should be the last column, got %v", table.Columns)
	}
}

func TestExecuteWindowed_FailureAbortsRemainingDays(t *testing.T) {
	q := &fakeQuerier{failAt: 2}

	_, err := ExecuteWindowed(context.Background(), q, "ds-1", day(2024, 1, 1), day(2024, 1, 5))

	var queryErr *powerbi.QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("error = %v, want *powerbi.QueryError", err)
	}
	if len(q.calls) != 2 {
		t.Errorf("calls = %d, want 2 (abort on first failure)", len(q.calls))
	}
}

func TestExecuteWindowed_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := &fakeQuerier{}
	_, err := ExecuteWindowed(ctx, q, "ds-1", day(2024, 1, 1), day(2024, 1, 3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(q.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(q.calls))
	}
}
