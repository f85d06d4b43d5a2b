package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mbarros/fabricusage/internal/appupdate"
	"github.com/mbarros/fabricusage/internal/config"
	"github.com/mbarros/fabricusage/internal/core"
	"github.com/mbarros/fabricusage/internal/extract"
	"github.com/mbarros/fabricusage/internal/history"
	"github.com/mbarros/fabricusage/internal/powerbi"
)

func (m Model) connectCmd(creds core.Credentials) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		if err := backend.Authenticate(ctx, creds); err != nil {
			return connectFailedMsg{err: err}
		}
		workspaces, err := backend.ListWorkspaces(ctx)
		if err != nil {
			return connectFailedMsg{err: err}
		}
		return connectedMsg{workspaces: workspaces}
	}
}

func (m Model) loadItemsCmd(workspaceID string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		items, err := backend.ListItems(ctx, workspaceID)
		if err != nil {
			return itemsFailedMsg{err: err}
		}
		return itemsLoadedMsg{items: items}
	}
}

// countingQuerier posts a progress message after every executed query.
// extract.Run is sequential, so no locking is needed.
type countingQuerier struct {
	inner Backend
	post  func(tea.Msg)
	total int
	done  int
}

func (c *countingQuerier) ExecuteQuery(ctx context.Context, datasetID string, spec powerbi.QuerySpec) (core.Table, error) {
	table, err := c.inner.ExecuteQuery(ctx, datasetID, spec)
	c.done++
	c.post(queryProgressMsg{done: c.done, total: c.total})
	return table, err
}

func (m Model) runExtractionCmd(item core.CatalogItem) tea.Cmd {
	backend := m.backend
	store := m.store
	workspace := m.selectedWorkspace
	windowDays := m.windowDays
	destination := m.destination()
	tenantID := m.inputs[fieldTenant].value
	clientID := m.inputs[fieldClient].value
	post := m.post
	started := m.runStarted
	total := m.totalQueries()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		querier := &countingQuerier{inner: backend, post: post, total: total}
		now := time.Now()
		result, err := extract.Run(ctx, querier, item.ID, windowDays, now)
		finished := time.Now()

		if err != nil {
			recordRun(store, history.Run{
				StartedAt:     started,
				FinishedAt:    finished,
				WorkspaceID:   workspace.ID,
				WorkspaceName: workspace.Name,
				DatasetID:     item.ID,
				DatasetName:   item.Name,
				Destination:   destination,
				Status:        history.StatusFailed,
				Message:       err.Error(),
			})
			return extractionFailedMsg{err: err}
		}

		var saveErr error
		if destination != "" {
			saveErr = result.SaveAll(destination)
		}

		run := history.Run{
			StartedAt:     started,
			FinishedAt:    finished,
			WorkspaceID:   workspace.ID,
			WorkspaceName: workspace.Name,
			DatasetID:     item.ID,
			DatasetName:   item.Name,
			WindowStart:   result.Start.Format("2006-01-02"),
			WindowEnd:     result.End.Format("2006-01-02"),
			Destination:   destination,
			Status:        history.StatusSucceeded,
		}
		for _, tr := range result.Tables {
			run.Tables = append(run.Tables, history.RunTable{
				Key:  tr.Shape.Key,
				Rows: len(tr.Table.Rows),
				File: tr.Shape.Filename,
			})
		}
		recordRun(store, run)

		// Best effort; a config write failure never fails the run.
		_ = config.SaveSession(tenantID, clientID, destination, workspace.Name)

		return extractionDoneMsg{
			result:  result,
			saveErr: saveErr,
			elapsed: finished.Sub(started),
		}
	}
}

func recordRun(store *history.Store, run history.Run) {
	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = store.Record(ctx, run)
}

func (m Model) saveTableCmd(key string) tea.Cmd {
	result := m.result
	dest := m.destination()
	return func() tea.Msg {
		if dest == "" {
			return tableSavedMsg{key: key, err: errNoDestination}
		}
		return tableSavedMsg{key: key, err: result.Save(dest, key)}
	}
}

func (m Model) saveAllCmd() tea.Cmd {
	result := m.result
	dest := m.destination()
	return func() tea.Msg {
		if dest == "" {
			return tableSavedMsg{key: "all tables", err: errNoDestination}
		}
		return tableSavedMsg{key: "all tables", err: result.SaveAll(dest)}
	}
}

func (m Model) loadLastRunCmd() tea.Cmd {
	store := m.store
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		run, err := store.LastRun(ctx)
		if err != nil {
			return lastRunLoadedMsg{}
		}
		return lastRunLoadedMsg{run: run}
	}
}

func (m Model) checkUpdateCmd() tea.Cmd {
	version := m.version
	return func() tea.Msg {
		result, err := appupdate.Check(context.Background(), appupdate.CheckOptions{
			CurrentVersion: version,
		})
		if err != nil {
			return updateCheckedMsg{}
		}
		return updateCheckedMsg{result: result}
	}
}
