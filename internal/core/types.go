package core

import (
	"strconv"
	"strings"
)

// ItemKind classifies a workspace catalog entry by its source endpoint.
type ItemKind string

const (
	ItemKindReport    ItemKind = "Report"
	ItemKindDashboard ItemKind = "Dashboard"
	ItemKindDataset   ItemKind = "Dataset"
)

// Credentials is the Entra ID service-principal identity for the session.
// Held in memory only; never persisted.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.TenantID) != "" &&
		strings.TrimSpace(c.ClientID) != "" &&
		strings.TrimSpace(c.ClientSecret) != ""
}

// Workspace is an immutable listing snapshot of a Power BI group.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CatalogItem is the uniform projection over the reports, dashboards and
// datasets listing records of a workspace.
type CatalogItem struct {
	ID   string
	Name string
	Kind ItemKind
}

// Row maps an engine column name to a cell value as decoded from JSON:
// string, float64, bool or nil.
type Row map[string]any

// Table is an ordered result set. Columns carries the header order; rows
// may hold keys outside Columns until normalization settles them.
type Table struct {
	Columns []string
	Rows    []Row
}

func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Cell renders the row's value for col as a CSV-safe string.
func (r Row) Cell(col string) string {
	return FormatValue(r[col])
}

// FormatValue coerces a decoded JSON value to its CSV string form.
// Numbers use the shortest exact decimal (no exponent), booleans render
// as true/false, nulls as the empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
