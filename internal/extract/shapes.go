// Package extract holds the fixed DAX query shapes the tool runs against a
// Fabric Capacity Metrics semantic model, the column normalizer that maps
// the engine's generated column names to stable output names, and the
// day-bucketed execution loop for the timepoint-detail history.
package extract

import (
	"fmt"

	"github.com/mbarros/fabricusage/internal/core"
	"github.com/mbarros/fabricusage/internal/powerbi"
)

// Shape is one query the extraction runs: its DAX text, the rename table
// from engine-qualified column names to output names, the output column
// order and the CSV file it lands in.
type Shape struct {
	Key      string
	Title    string
	Filename string
	Renames  map[string]string
	Columns  []string

	query string // static DAX; empty for the day-bucketed detail shape
}

// Spec returns the query payload for a static shape.
func (s Shape) Spec() powerbi.QuerySpec {
	return powerbi.QuerySpec{Query: s.query, IncludeNulls: true}
}

// Items is the flat snapshot of catalog items with their capacity,
// workspace and billing attributes.
var Items = Shape{
	Key:      "items",
	Title:    "Items",
	Filename: "capacities_metrics_itens.csv",
	query:    "EVALUATE Items",
	Renames: map[string]string{
		"Items[Capacity Id]":                 "Capacity_Id",
		"Items[Item Id]":                     "Item_Id",
		"Items[Item kind]":                   "Item_kind",
		"Items[Item name]":                   "Item_name",
		"Items[Users]":                       "Users",
		"Items[Timestamp]":                   "Timestamp",
		"Items[Workspace Id]":                "Workspace_Id",
		"Items[Workspace name]":              "Workspace_name",
		"Items[Billable type]":               "Billable_type",
		"Items[Virtualised item]":            "Virtualised_item",
		"Items[Virtualised workspace]":       "Virtualised_workspace",
		"Items[Is virtual  item status]":     "Is_virtual_item_status",
		"Items[Is virtual workspace status]": "Is_virtual_workspace_status",
		"Items[Unique key]":                  "Unique_key",
		"Items[Item key]":                    "Item_key",
	},
	Columns: []string{
		"Capacity_Id", "Item_Id", "Item_kind", "Item_name", "Users",
		"Timestamp", "Workspace_Id", "Workspace_name", "Billable_type",
		"Virtualised_item", "Virtualised_workspace", "Is_virtual_item_status",
		"Is_virtual_workspace_status", "Unique_key", "Item_key",
	},
}

// SKU lists per-capacity SKU/plan/region/owner attributes plus the
// computed SKU CU measure, grouped by capacity.
var SKU = Shape{
	Key:      "sku",
	Title:    "SKU",
	Filename: "capacities_metrics_sku.csv",
	query: `
		DEFINE
		VAR __DS0Core =
			SUMMARIZECOLUMNS(
				'Capacities'[capacity Id],
				'Capacities'[Capacity memory in GB],
				'Capacities'[Capacity number of Vcores],
				'Capacities'[Capacity plan],
				'Capacities'[Creation date],
				'Capacities'[mode],
				'Capacities'[Owners],
				'Capacities'[Region],
				'Capacities'[SKU],
				'Capacities'[Capacity name],
				"Sku_CU", 'All Measures'[SKU CU by timepoint]
			)
		EVALUATE __DS0Core
	`,
	Renames: map[string]string{
		"Capacities[capacity Id]":               "Capacity_Id",
		"Capacities[Capacity memory in GB]":     "Capacity_memory_GB",
		"Capacities[Capacity number of Vcores]": "Capacity_vcores",
		"Capacities[Capacity plan]":             "Capacity_plan",
		"Capacities[Creation date]":             "Creation_date",
		"Capacities[mode]":                      "Mode",
		"Capacities[Owners]":                    "Owners",
		"Capacities[Region]":                    "Region",
		"Capacities[SKU]":                       "SKU",
		"Capacities[Capacity name]":             "Capacity_name",
		"[Sku_CU]":                              "Sku_CU",
	},
	Columns: []string{
		"Capacity_Id", "Capacity_memory_GB", "Capacity_vcores",
		"Capacity_plan", "Creation_date", "Mode", "Owners", "Region", "SKU",
		"Capacity_name", "Sku_CU",
	},
}

// ItemsUtilization is the per-item, per-operation, per-day metrics table:
// CU consumption, duration percentiles and operation outcome counts.
var ItemsUtilization = Shape{
	Key:      "items_utilization",
	Title:    "Items Utilization",
	Filename: "capacities_metrics_itens_utilization.csv",
	query: `
		EVALUATE
		'Metrics By Item Operation And Day'
	`,
	Renames: map[string]string{
		"Metrics By Item Operation And Day[Datetime]":                    "Datetime",
		"Metrics By Item Operation And Day[Date]":                        "Date",
		"Metrics By Item Operation And Day[Item Id]":                     "Item_Id",
		"Metrics By Item Operation And Day[Operation name]":              "Operation_name",
		"Metrics By Item Operation And Day[CU (s)]":                      "CU",
		"Metrics By Item Operation And Day[Duration (s)]":                "Duration",
		"Metrics By Item Operation And Day[Operations]":                  "Operations",
		"Metrics By Item Operation And Day[Users]":                       "Users",
		"Metrics By Item Operation And Day[Percentile duration (ms) 50]": "Percentile_duration_ms_50",
		"Metrics By Item Operation And Day[Percentile duration (ms) 90]": "Percentile_duration_ms_90",
		"Metrics By Item Operation And Day[Avg duration (ms)]":           "Avg_duration_ms",
		"Metrics By Item Operation And Day[Capacity Id]":                 "Capacity_Id",
		"Metrics By Item Operation And Day[Throttling (min)]":            "Throttling_min",
		"Metrics By Item Operation And Day[Failed operations]":           "Failed_operations",
		"Metrics By Item Operation And Day[Rejected operations]":         "Rejected_operations",
		"Metrics By Item Operation And Day[Successful operations]":       "Successful_operations",
		"Metrics By Item Operation And Day[Inprogress operations]":       "Inprogress_operations",
		"Metrics By Item Operation And Day[Cancelled operations]":        "Cancelled_operations",
		"Metrics By Item Operation And Day[Invalid operations]":          "Invalid_operations",
		"Metrics By Item Operation And Day[Workspace Id]":                "Workspace_Id",
		"Metrics By Item Operation And Day[Unique key]":                  "Unique_key",
	},
	Columns: []string{
		"Datetime", "Date", "Item_Id", "Operation_name", "CU", "Duration",
		"Operations", "Users", "Percentile_duration_ms_50",
		"Percentile_duration_ms_90", "Avg_duration_ms", "Capacity_Id",
		"Throttling_min", "Failed_operations", "Rejected_operations",
		"Successful_operations", "Inprogress_operations",
		"Cancelled_operations", "Invalid_operations", "Workspace_Id",
		"Unique_key",
	},
}

// TimepointUtilization aggregates background/interactive billable CU per
// capacity per timepoint.
var TimepointUtilization = Shape{
	Key:      "timepoint_utilization",
	Title:    "Timepoint Utilization",
	Filename: "capacities_metrics_timepoint_utilization.csv",
	query: `
		DEFINE
		VAR __DS0Core =
			SUMMARIZECOLUMNS(
				'Timepoints'[Time-point],
				'Timepoints'[Date],
				'Capacities'[capacity Id],
				"Background_CU", 'All Measures'[Background billable CU],
				"Interactive_CU", 'All Measures'[Interactive billable CU]
			)
		EVALUATE
			__DS0Core
	`,
	Renames: map[string]string{
		"Timepoints[Time-point]":  "Time_point",
		"Timepoints[Date]":        "Date",
		"Capacities[capacity Id]": "Capacity_Id",
		"[Background_CU]":         "Background_CU",
		"[Interactive_CU]":        "Interactive_CU",
	},
	Columns: []string{
		"Time_point", "Date", "Capacity_Id", "Background_CU", "Interactive_CU",
	},
}

// TimepointDetail is the day-bucketed shape: per-capacity, per-workspace,
// per-item, per-operation CU totals at one end-of-day timepoint. Its DAX
// is built per day; the aggregator stamps Query_Date on every row.
var TimepointDetail = Shape{
	Key:      "timepoint_detail_utilization",
	Title:    "Timepoint Detail Utilization",
	Filename: "capacities_metrics_timepoint_detail_utilization.csv",
	Renames: map[string]string{
		"Timepoint Background Detail[Capacity Id]": "Capacity_Id",
		"Items[Workspace Id]":                      "Workspace_Id",
		"Items[Item Id]":                           "Item_Id",
		"Timepoint Background Detail[Operation]":   "Operation",
		"Timepoint Background Detail[Start]":       "Start_Date",
		"[Total_CUs]":                              "Total_CUs",
		"[Timepoint_CUs]":                          "Timepoint_CUs",
	},
	Columns: []string{
		"Capacity_Id", "Workspace_Id", "Item_Id", "Operation", "Start_Date",
		"Total_CUs", "Timepoint_CUs", QueryDateColumn,
	},
}

// DetailQuery builds the timepoint-detail payload for one calendar day.
// The metrics model scopes this fact table to a single timepoint per call,
// so the day's 23:59 sample is embedded as a literal filter.
func DetailQuery(d core.DateParts) powerbi.QuerySpec {
	query := fmt.Sprintf(`
		DEFINE
		MPARAMETER 'TimePoint' =
			(DATE(%[1]d, %[2]d, %[3]d) + TIME(23, 59, 0))

		VAR __DS0FilterTable =
			FILTER(
				KEEPFILTERS(VALUES('Timepoints'[Timepoint])),
				'Timepoints'[Timepoint] = (DATE(%[1]d, %[2]d, %[3]d) + TIME(23, 59, 0))
			)

		VAR __DS0Core =
			SUMMARIZECOLUMNS(
				'Timepoint Background Detail'[Capacity Id],
				'Items'[Workspace Id],
				'Items'[Item Id],
				'Timepoint Background Detail'[Operation],
				'Timepoint Background Detail'[Start],
				__DS0FilterTable,
				"Total_CUs", CALCULATE(SUM('Timepoint Background Detail'[Total CU (s)])),
				"Timepoint_CUs", CALCULATE(SUM('Timepoint Background Detail'[Timepoint CU (s)]))
			)

		EVALUATE
			__DS0Core
	`, d.Year, d.Month, d.Day)

	return powerbi.QuerySpec{Query: query, IncludeNulls: true}
}
