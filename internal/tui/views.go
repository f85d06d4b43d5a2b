package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mbarros/fabricusage/internal/core"
	"github.com/mbarros/fabricusage/internal/extract"
	"github.com/samber/lo"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const maxCellWidth = 28

func (m Model) View() string {
	var sections []string
	sections = append(sections, m.viewHeader())

	switch m.step {
	case stepCredentials:
		sections = append(sections, m.viewCredentials())
	case stepConnecting:
		sections = append(sections, m.viewSpinnerLine("Authenticating and listing workspaces"))
	case stepWorkspaces:
		sections = append(sections, m.viewWorkspaces())
	case stepItems:
		sections = append(sections, m.viewItems())
	case stepRunning:
		sections = append(sections, m.viewRunning())
	case stepResults:
		sections = append(sections, m.viewResults())
	}

	sections = append(sections, m.viewFooter())
	return strings.Join(sections, "\n\n") + "\n"
}

func (m Model) viewHeader() string {
	brand := headerBrandStyle.Render("fabricusage")
	title := headerStyle.Render(" · capacity metrics extraction")
	version := ""
	if m.version != "" {
		version = dimStyle.Render("  " + m.version)
	}
	return brand + title + version
}

func (m Model) spinner() string {
	return tealStyle.Render(spinnerFrames[m.animFrame%len(spinnerFrames)])
}

func (m Model) viewSpinnerLine(text string) string {
	return "  " + m.spinner() + " " + labelStyle.Render(text+"…")
}

func (m Model) viewCredentials() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Service principal") + "\n\n")
	for i, f := range m.inputs {
		marker := "  "
		label := labelStyle.Render(fmt.Sprintf("%-20s", f.label))
		if i == m.focus {
			marker = selectedStyle.Render("> ")
			label = selectedStyle.Render(fmt.Sprintf("%-20s", f.label))
		}
		b.WriteString(marker + label + f.display(i == m.focus) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  extraction window: trailing %d days, one query per day", m.windowDays)))
	return focusedBoxStyle.Render(b.String())
}

func (m Model) viewWorkspaces() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Workspaces (%d)", len(m.workspaces))) + "\n\n")
	if len(m.workspaces) == 0 {
		b.WriteString(dimStyle.Render("  none visible to this service principal"))
		return b.String()
	}
	for _, entry := range m.listWindow(len(m.workspaces), m.wsCursor) {
		ws := m.workspaces[entry.index]
		if entry.index == m.wsCursor {
			b.WriteString(selectedStyle.Render("> "+ws.Name) + dimStyle.Render("  "+ws.ID) + "\n")
		} else {
			b.WriteString(valueStyle.Render("  "+ws.Name) + "\n")
		}
	}
	return b.String()
}

func (m Model) viewItems() string {
	var b strings.Builder
	header := fmt.Sprintf("Items in %s (%d)", m.selectedWorkspace.Name, len(m.items))
	b.WriteString(sectionHeaderStyle.Render(header) + "\n\n")
	if len(m.items) == 0 {
		b.WriteString(dimStyle.Render("  empty workspace"))
		return b.String()
	}
	for _, entry := range m.listWindow(len(m.items), m.itemCursor) {
		item := m.items[entry.index]
		kind := renderKind(item.Kind)
		if entry.index == m.itemCursor {
			b.WriteString(selectedStyle.Render("> "+item.Name) + "  " + kind + "\n")
		} else {
			b.WriteString(valueStyle.Render("  "+item.Name) + "  " + kind + "\n")
		}
	}
	b.WriteString("\n" + dimStyle.Render("  only a Dataset (the metrics semantic model) can be extracted"))
	return b.String()
}

func renderKind(kind core.ItemKind) string {
	switch kind {
	case core.ItemKindDataset:
		return successStyle.Render("[dataset]")
	case core.ItemKindReport:
		return tealStyle.Render("[report]")
	case core.ItemKindDashboard:
		return warnStyle.Render("[dashboard]")
	}
	return dimStyle.Render("[" + string(kind) + "]")
}

type listEntry struct{ index int }

// listWindow keeps the cursor visible in long lists by sliding a
// fixed-height window over the entries.
func (m Model) listWindow(total, cursor int) []listEntry {
	visible := m.height - 12
	if visible < 5 {
		visible = 5
	}
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > total {
		end = total
	}
	entries := make([]listEntry, 0, end-start)
	for i := start; i < end; i++ {
		entries = append(entries, listEntry{index: i})
	}
	return entries
}

func (m Model) viewRunning() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Extracting "+m.selectedItem.Name) + "\n\n")
	width := m.width - 20
	if width < 20 {
		width = 20
	}
	b.WriteString("  " + RenderProgress(m.progressDone, m.progressTotal, width))
	b.WriteString(fmt.Sprintf("  %d/%d queries\n\n", m.progressDone, m.progressTotal))
	b.WriteString(m.viewSpinnerLine("running DAX queries, one per window day"))
	return boxStyle.Render(b.String())
}

func (m Model) viewResults() string {
	if m.result == nil || len(m.result.Tables) == 0 {
		return dimStyle.Render("  no tables")
	}

	var tabs []string
	for i, tr := range m.result.Tables {
		label := fmt.Sprintf("%s (%d)", tr.Shape.Title, len(tr.Table.Rows))
		if i == m.activeTab {
			tabs = append(tabs, tabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(label))
		}
	}

	active := m.activeTable()
	var b strings.Builder
	b.WriteString(strings.Join(tabs, " ") + "\n\n")
	b.WriteString(m.viewTable(active.Table))

	if active.Shape.Key == extract.TimepointDetail.Key {
		if spark := m.viewDailySparkline(active.Table); spark != "" {
			b.WriteString("\n" + spark)
		}
	}
	return b.String()
}

func (m Model) viewTable(t core.Table) string {
	if len(t.Columns) == 0 {
		return dimStyle.Render("  empty table (no rows in the window)")
	}

	width := m.width
	if width <= 0 {
		width = 120
	}

	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = len(col)
	}
	visible := m.visibleRows(t)
	for _, row := range visible {
		for i, col := range t.Columns {
			if w := len(row.Cell(col)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > maxCellWidth {
			widths[i] = maxCellWidth
		}
	}

	var b strings.Builder
	var header []string
	for i, col := range t.Columns {
		header = append(header, pad(col, widths[i]))
	}
	b.WriteString(ansi.Truncate(tableHeaderStyle.Render(strings.Join(header, "  ")), width, "…") + "\n")

	for _, row := range visible {
		var cells []string
		for i, col := range t.Columns {
			cells = append(cells, pad(row.Cell(col), widths[i]))
		}
		b.WriteString(ansi.Truncate(valueStyle.Render(strings.Join(cells, "  ")), width, "…") + "\n")
	}

	shown := len(visible)
	if shown < len(t.Rows) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  … rows %d-%d of %d", m.rowOffset+1, m.rowOffset+shown, len(t.Rows))))
	}
	return b.String()
}

func (m Model) visibleRows(t core.Table) []core.Row {
	limit := m.height - 14
	if limit < 5 {
		limit = 5
	}
	start := m.rowOffset
	if start > len(t.Rows) {
		start = len(t.Rows)
	}
	end := start + limit
	if end > len(t.Rows) {
		end = len(t.Rows)
	}
	return t.Rows[start:end]
}

func pad(s string, w int) string {
	if len(s) > w {
		if w <= 1 {
			return s[:w]
		}
		return s[:w-1] + "…"
	}
	return s + strings.Repeat(" ", w-len(s))
}

// viewDailySparkline charts summed Total_CUs per query day for the
// timepoint-detail table.
func (m Model) viewDailySparkline(t core.Table) string {
	if len(t.Rows) == 0 {
		return ""
	}
	byDay := lo.GroupBy(t.Rows, func(row core.Row) string {
		return row.Cell(extract.QueryDateColumn)
	})
	days := lo.Keys(byDay)
	sort.Strings(days)

	totals := make([]float64, 0, len(days))
	for _, day := range days {
		sum := 0.0
		for _, row := range byDay[day] {
			// Raw map access: Cell would stringify the float.
			if v, ok := row["Total_CUs"].(float64); ok {
				sum += v
			}
		}
		totals = append(totals, sum)
	}

	width := len(totals)
	if m.width > 0 && width > m.width-30 {
		width = m.width - 30
	}
	return labelStyle.Render("  daily Total_CUs  ") + RenderSparkline(totals, width, colorTeal) +
		dimStyle.Render(fmt.Sprintf("  %s → %s", days[0], days[len(days)-1]))
}

func (m Model) viewFooter() string {
	var lines []string

	if m.errMsg != "" {
		style := errorStyle
		if strings.HasPrefix(m.errMsg, "authentication") {
			style = authStyle
		}
		lines = append(lines, style.Render("✗ "+m.errMsg))
	}
	if m.statusMsg != "" {
		lines = append(lines, successStyle.Render("✓ "+m.statusMsg))
	}
	if m.lastRun != nil {
		run := m.lastRun
		rows := 0
		for _, tbl := range run.Tables {
			rows += tbl.Rows
		}
		lines = append(lines, dimStyle.Render(fmt.Sprintf(
			"last run: %s · %s · %d rows · %s",
			run.FinishedAt.Format("2006-01-02 15:04"), run.Status, rows, run.WorkspaceName)))
	}
	if m.updateHint != "" {
		lines = append(lines, warnStyle.Render(m.updateHint))
	}

	lines = append(lines, m.helpLine())
	return strings.Join(lines, "\n")
}

func (m Model) helpLine() string {
	var pairs [][2]string
	switch m.step {
	case stepCredentials:
		pairs = [][2]string{{"tab", "next field"}, {"enter", "connect"}, {"ctrl+c", "quit"}}
	case stepWorkspaces:
		pairs = [][2]string{{"↑/↓", "move"}, {"enter", "open"}, {"esc", "credentials"}, {"q", "quit"}}
	case stepItems:
		pairs = [][2]string{{"↑/↓", "move"}, {"enter", "extract"}, {"esc", "back"}, {"q", "quit"}}
	case stepResults:
		pairs = [][2]string{{"tab", "next table"}, {"↑/↓", "scroll"}, {"s", "save table"}, {"S", "save all"}, {"esc", "back"}, {"q", "quit"}}
	default:
		pairs = [][2]string{{"ctrl+c", "quit"}}
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, helpKeyStyle.Render(p[0])+helpStyle.Render(" "+p[1]))
	}
	return helpStyle.Render(strings.Join(parts, helpStyle.Render("  ·  ")))
}
