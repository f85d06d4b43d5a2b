// Package tui is the interactive flow: credentials in, workspace and
// dataset picked, five queries run, tables previewed and saved. All
// session state lives in the single Model value.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mbarros/fabricusage/internal/appupdate"
	"github.com/mbarros/fabricusage/internal/core"
	"github.com/mbarros/fabricusage/internal/export"
	"github.com/mbarros/fabricusage/internal/extract"
	"github.com/mbarros/fabricusage/internal/history"
	"github.com/mbarros/fabricusage/internal/powerbi"
)

// Backend is the slice of the Power BI client the flow needs.
// *powerbi.Client satisfies it; tests plug in fakes.
type Backend interface {
	Authenticate(ctx context.Context, creds core.Credentials) error
	ListWorkspaces(ctx context.Context) ([]core.Workspace, error)
	ListItems(ctx context.Context, workspaceID string) ([]core.CatalogItem, error)
	ExecuteQuery(ctx context.Context, datasetID string, spec powerbi.QuerySpec) (core.Table, error)
}

type step int

const (
	stepCredentials step = iota // entering tenant/client/secret/destination
	stepConnecting              // token exchange + workspace listing in flight
	stepWorkspaces              // picking a workspace
	stepItems                   // picking a catalog item
	stepRunning                 // the five queries in flight
	stepResults                 // previewing tables
)

const (
	fieldTenant = iota
	fieldClient
	fieldSecret
	fieldDestination
	fieldCount
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type connectedMsg struct{ workspaces []core.Workspace }
type connectFailedMsg struct{ err error }
type itemsLoadedMsg struct{ items []core.CatalogItem }
type itemsFailedMsg struct{ err error }
type queryProgressMsg struct{ done, total int }
type extractionDoneMsg struct {
	result  *extract.Result
	saveErr error
	elapsed time.Duration
}
type extractionFailedMsg struct{ err error }
type tableSavedMsg struct {
	key string
	err error
}
type lastRunLoadedMsg struct{ run *history.Run }
type updateCheckedMsg struct{ result appupdate.Result }

// Options configures a dashboard model.
type Options struct {
	Backend    Backend
	Store      *history.Store // nil disables the run journal
	WindowDays int
	Version    string

	// Prefills from config/environment.
	TenantID      string
	ClientID      string
	ClientSecret  string
	Destination   string
	LastWorkspace string
}

var errNoDestination = errors.New("no destination folder set")

// notifier carries the program's Send func. It is a pointer so the
// value copies Bubble Tea makes of the model all share it.
type notifier struct {
	fn func(tea.Msg)
}

type Model struct {
	backend    Backend
	store      *history.Store
	notify     *notifier
	windowDays int
	version    string

	width  int
	height int
	step   step

	inputs []field
	focus  int

	workspaces        []core.Workspace
	wsCursor          int
	selectedWorkspace core.Workspace

	items        []core.CatalogItem
	itemCursor   int
	selectedItem core.CatalogItem

	result    *extract.Result
	activeTab int
	rowOffset int

	progressDone  int
	progressTotal int
	runStarted    time.Time
	animFrame     int

	errMsg     string
	statusMsg  string
	lastRun    *history.Run
	updateHint string

	lastWorkspace string // config prefill, used to preselect the cursor
}

func NewModel(opts Options) Model {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 14
	}
	return Model{
		backend:    opts.Backend,
		store:      opts.Store,
		notify:     &notifier{},
		windowDays: opts.WindowDays,
		version:    opts.Version,
		inputs: []field{
			{label: "Tenant ID", value: opts.TenantID},
			{label: "Client ID", value: opts.ClientID},
			{label: "Client Secret", value: opts.ClientSecret, masked: true},
			{label: "Destination folder", value: opts.Destination, placeholder: "where the CSV files land"},
		},
		lastWorkspace: opts.LastWorkspace,
	}
}

// SetSender wires the program's Send func so in-flight commands can
// post progress messages. Call it after tea.NewProgram, before Run.
func (m Model) SetSender(fn func(tea.Msg)) {
	m.notify.fn = fn
}

func (m Model) post(msg tea.Msg) {
	if m.notify.fn != nil {
		m.notify.fn(msg)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.loadLastRunCmd(), m.checkUpdateCmd())
}

func (m Model) credentials() core.Credentials {
	return core.Credentials{
		TenantID:     m.inputs[fieldTenant].value,
		ClientID:     m.inputs[fieldClient].value,
		ClientSecret: m.inputs[fieldSecret].value,
	}
}

func (m Model) destination() string {
	return m.inputs[fieldDestination].value
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.animFrame++
		return m, tickCmd()

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case connectedMsg:
		m.step = stepWorkspaces
		m.workspaces = msg.workspaces
		m.wsCursor = m.preselectWorkspace()
		m.errMsg = ""
		m.statusMsg = fmt.Sprintf("Connected. %d workspaces visible.", len(msg.workspaces))
		return m, nil

	case connectFailedMsg:
		m.step = stepCredentials
		m.errMsg = describeError(msg.err)
		return m, nil

	case itemsLoadedMsg:
		m.step = stepItems
		m.items = msg.items
		m.itemCursor = 0
		m.errMsg = ""
		return m, nil

	case itemsFailedMsg:
		m.step = stepWorkspaces
		m.errMsg = describeError(msg.err)
		return m, nil

	case queryProgressMsg:
		m.progressDone = msg.done
		m.progressTotal = msg.total
		return m, nil

	case extractionDoneMsg:
		m.step = stepResults
		m.result = msg.result
		m.activeTab = 0
		m.rowOffset = 0
		m.errMsg = ""
		m.statusMsg = fmt.Sprintf("Extracted %d rows in %s.", msg.result.TotalRows(), msg.elapsed.Round(time.Second))
		if msg.saveErr != nil {
			// Persistence failure is non-fatal: the tables stay
			// previewable and individually savable.
			m.errMsg = describeError(msg.saveErr)
		} else if m.destination() != "" {
			m.statusMsg += " Saved to " + m.destination() + "."
		}
		return m, m.loadLastRunCmd()

	case extractionFailedMsg:
		m.step = stepItems
		m.errMsg = describeError(msg.err)
		return m, m.loadLastRunCmd()

	case tableSavedMsg:
		if msg.err != nil {
			m.errMsg = describeError(msg.err)
		} else {
			m.statusMsg = "Saved " + msg.key + " to " + m.destination() + "."
		}
		return m, nil

	case lastRunLoadedMsg:
		m.lastRun = msg.run
		return m, nil

	case updateCheckedMsg:
		if msg.result.UpdateAvailable {
			m.updateHint = fmt.Sprintf("update available: %s (%s)", msg.result.LatestVersion, msg.result.UpgradeHint)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.step {
	case stepCredentials:
		return m.updateCredentialKeys(msg)
	case stepConnecting, stepRunning:
		// In-flight work is not cancellable mid-call; ignore keys.
		return m, nil
	case stepWorkspaces:
		return m.updateWorkspaceKeys(msg)
	case stepItems:
		return m.updateItemKeys(msg)
	case stepResults:
		return m.updateResultKeys(msg)
	}
	return m, nil
}

func (m Model) updateCredentialKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		m.focus = (m.focus + 1) % fieldCount
	case tea.KeyShiftTab, tea.KeyUp:
		m.focus = (m.focus + fieldCount - 1) % fieldCount
	case tea.KeyEnter:
		if m.focus < fieldCount-1 {
			m.focus++
			return m, nil
		}
		return m.startConnect()
	case tea.KeyCtrlS:
		return m.startConnect()
	case tea.KeyBackspace:
		m.inputs[m.focus].backspace()
	case tea.KeyRunes, tea.KeySpace:
		m.inputs[m.focus].insert(msg.Runes)
	}
	return m, nil
}

func (m Model) startConnect() (tea.Model, tea.Cmd) {
	creds := m.credentials()
	if !creds.Complete() {
		m.errMsg = "tenant ID, client ID and client secret are all required"
		return m, nil
	}
	m.step = stepConnecting
	m.errMsg = ""
	m.statusMsg = ""
	return m, m.connectCmd(creds)
}

func (m Model) updateWorkspaceKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.step = stepCredentials
		return m, nil
	case "up", "k":
		if m.wsCursor > 0 {
			m.wsCursor--
		}
	case "down", "j":
		if m.wsCursor < len(m.workspaces)-1 {
			m.wsCursor++
		}
	case "enter":
		if len(m.workspaces) == 0 {
			return m, nil
		}
		m.selectedWorkspace = m.workspaces[m.wsCursor]
		m.errMsg = ""
		return m, m.loadItemsCmd(m.selectedWorkspace.ID)
	}
	return m, nil
}

func (m Model) updateItemKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.step = stepWorkspaces
		m.errMsg = ""
		return m, nil
	case "up", "k":
		if m.itemCursor > 0 {
			m.itemCursor--
		}
	case "down", "j":
		if m.itemCursor < len(m.items)-1 {
			m.itemCursor++
		}
	case "enter":
		if len(m.items) == 0 {
			return m, nil
		}
		item := m.items[m.itemCursor]
		if item.Kind != core.ItemKindDataset {
			m.errMsg = "select a Dataset to run the extraction (got a " + string(item.Kind) + ")"
			return m, nil
		}
		m.selectedItem = item
		m.step = stepRunning
		m.errMsg = ""
		m.statusMsg = ""
		m.progressDone = 0
		m.progressTotal = m.totalQueries()
		m.runStarted = time.Now()
		return m, m.runExtractionCmd(item)
	}
	return m, nil
}

func (m Model) updateResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "b":
		m.step = stepItems
		m.errMsg = ""
		return m, nil
	case "tab", "right", "l":
		if m.result != nil {
			m.activeTab = (m.activeTab + 1) % len(m.result.Tables)
			m.rowOffset = 0
		}
	case "shift+tab", "left", "h":
		if m.result != nil {
			m.activeTab = (m.activeTab + len(m.result.Tables) - 1) % len(m.result.Tables)
			m.rowOffset = 0
		}
	case "up", "k":
		if m.rowOffset > 0 {
			m.rowOffset--
		}
	case "down", "j":
		if m.result != nil && m.rowOffset < len(m.activeTable().Table.Rows)-1 {
			m.rowOffset++
		}
	case "s":
		if m.result != nil {
			return m, m.saveTableCmd(m.activeTable().Shape.Key)
		}
	case "S":
		if m.result != nil {
			return m, m.saveAllCmd()
		}
	}
	return m, nil
}

func (m Model) activeTable() extract.TableResult {
	return m.result.Tables[m.activeTab]
}

// totalQueries is the four static shapes plus one call per window day
// (trailing N days plus today).
func (m Model) totalQueries() int {
	return 4 + m.windowDays + 1
}

func (m Model) preselectWorkspace() int {
	if m.lastWorkspace == "" {
		return 0
	}
	for i, ws := range m.workspaces {
		if ws.Name == m.lastWorkspace {
			return i
		}
	}
	return 0
}

func describeError(err error) string {
	var authErr *powerbi.AuthError
	var catErr *powerbi.CatalogError
	var queryErr *powerbi.QueryError
	var writeErr *export.WriteError

	switch {
	case errors.As(err, &authErr):
		return "authentication failed: " + authErr.Error()
	case errors.As(err, &catErr):
		return "listing failed: " + catErr.Error()
	case errors.As(err, &queryErr):
		return "query failed: " + queryErr.Error()
	case errors.As(err, &writeErr):
		return "write failed (data still previewable): " + writeErr.Error()
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}
