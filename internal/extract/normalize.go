package extract

import (
	"sort"

	"github.com/mbarros/fabricusage/internal/core"
)

// Normalize rewrites a result table's column names per the shape's rename
// table. Only columns present in the map are touched; anything else passes
// through unchanged. The output header is the shape's declared column
// order, with unmapped stragglers appended in sorted order so downstream
// CSV headers stay deterministic.
func Normalize(t core.Table, s Shape) core.Table {
	declared := make(map[string]bool, len(s.Columns))
	for _, col := range s.Columns {
		declared[col] = true
	}

	extras := make(map[string]bool)
	rows := make([]core.Row, 0, len(t.Rows))
	for _, row := range t.Rows {
		out := make(core.Row, len(row))
		for col, v := range row {
			name := col
			if renamed, ok := s.Renames[col]; ok {
				name = renamed
			}
			out[name] = v
			if !declared[name] {
				extras[name] = true
			}
		}
		rows = append(rows, out)
	}

	columns := append([]string(nil), s.Columns...)
	if len(extras) > 0 {
		names := make([]string, 0, len(extras))
		for name := range extras {
			names = append(names, name)
		}
		sort.Strings(names)
		columns = append(columns, names...)
	}

	return core.Table{Columns: columns, Rows: rows}
}
