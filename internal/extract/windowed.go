package extract

import (
	"context"
	"time"

	"github.com/mbarros/fabricusage/internal/core"
	"github.com/mbarros/fabricusage/internal/powerbi"
)

// QueryDateColumn tags every row of the combined detail table with the
// calendar day whose query produced it.
const QueryDateColumn = "Query_Date"

// Querier executes one DAX query against a dataset.
type Querier interface {
	ExecuteQuery(ctx context.Context, datasetID string, spec powerbi.QuerySpec) (core.Table, error)
}

// ExecuteWindowed runs the timepoint-detail query once per calendar day
// from start to end inclusive, ascending, and concatenates the results.
// Days yielding no rows contribute nothing; contributing days have
// Query_Date stamped on each row before concatenation. The rename table is
// applied once over the combined result; an all-empty window returns an
// empty, un-normalized table.
//
// A failure on any day aborts the remaining days. Calls run strictly
// sequentially: the engine scopes this query to one timepoint per request,
// and sequential order keeps the combined table deterministic.
func ExecuteWindowed(ctx context.Context, q Querier, datasetID string, start, end time.Time) (core.Table, error) {
	var combined core.Table
	for _, day := range core.DateRange(start, end) {
		if err := ctx.Err(); err != nil {
			return core.Table{}, err
		}

		table, err := q.ExecuteQuery(ctx, datasetID, DetailQuery(day))
		if err != nil {
			return core.Table{}, err
		}
		if table.Empty() {
			continue
		}

		for _, row := range table.Rows {
			row[QueryDateColumn] = day.Format()
		}
		combined.Rows = append(combined.Rows, table.Rows...)
	}

	if combined.Empty() {
		return core.Table{}, nil
	}
	return Normalize(combined, TimepointDetail), nil
}
