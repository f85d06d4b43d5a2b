package extract

import (
	"reflect"
	"testing"

	"github.com/mbarros/fabricusage/internal/core"
)

func TestNormalize_RenamesOnlyMappedColumns(t *testing.T) {
	in := core.Table{Rows: []core.Row{
		{
			"Timepoints[Time-point]":  "2024-01-05T10:30:00",
			"Capacities[capacity Id]": "cap-1",
			"[Background_CU]":         12.5,
			"Custom[Extra]":           "kept as-is",
		},
	}}

	out := Normalize(in, TimepointUtilization)

	row := out.Rows[0]
	if row["Time_point"] != "2024-01-05T10:30:00" {
		t.Errorf("Time_point = %v", row["Time_point"])
	}
	if row["Capacity_Id"] != "cap-1" {
		t.Errorf("Capacity_Id = %v", row["Capacity_Id"])
	}
	if row["Background_CU"] != 12.5 {
		t.Errorf("Background_CU = %v", row["Background_CU"])
	}
	if row["Custom[Extra]"] != "kept as-is" {
		t.Errorf("unmapped column should pass through, got %v", row["Custom[Extra]"])
	}
	if _, present := row["Timepoints[Time-point]"]; present {
		t.Error("engine-qualified name should be gone after rename")
	}
}

func TestNormalize_HeaderOrder(t *testing.T) {
	in := core.Table{Rows: []core.Row{
		{
			"Timepoints[Time-point]": "tp",
			"Z[Straggler]":           1.0,
			"A[Straggler]":           2.0,
		},
	}}

	out := Normalize(in, TimepointUtilization)

	want := append([]string{}, TimepointUtilization.Columns...)
	want = append(want, "A[Straggler]", "Z[Straggler]")
	if !reflect.DeepEqual(out.Columns, want) {
		t.Errorf("columns = %v, want %v", out.Columns, want)
	}
}

func TestNormalize_EmptyTableKeepsDeclaredHeader(t *testing.T) {
	out := Normalize(core.Table{}, SKU)
	if !reflect.DeepEqual(out.Columns, SKU.Columns) {
		t.Errorf("columns = %v, want shape columns", out.Columns)
	}
	if len(out.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(out.Rows))
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := core.Table{Rows: []core.Row{{"Items[Item Id]": "i-1"}}}

	Normalize(in, Items)

	if _, present := in.Rows[0]["Item_Id"]; present {
		t.Error("input row was mutated")
	}
	if in.Rows[0]["Items[Item Id]"] != "i-1" {
		t.Error("input row lost its original key")
	}
}

func TestShapes_RenameTargetsMatchDeclaredColumns(t *testing.T) {
	for _, shape := range []Shape{Items, SKU, ItemsUtilization, TimepointUtilization, TimepointDetail} {
		t.Run(shape.Key, func(t *testing.T) {
			declared := make(map[string]bool, len(shape.Columns))
			for _, col := range shape.Columns {
				declared[col] = true
			}
			for from, to := range shape.Renames {
				if !declared[to] {
					t.Errorf("rename %q -> %q has no declared column", from, to)
				}
			}
		})
	}
}
