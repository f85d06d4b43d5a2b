package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mbarros/fabricusage/internal/config"
	"github.com/mbarros/fabricusage/internal/history"
	"github.com/mbarros/fabricusage/internal/powerbi"
	"github.com/mbarros/fabricusage/internal/tui"
	"github.com/mbarros/fabricusage/internal/version"
)

func runDashboard(cfg config.Config) {
	client := powerbi.NewClient()

	// The run journal is optional; a broken DB never blocks extraction.
	var store *history.Store
	if s, err := history.OpenStore(history.DefaultPath()); err == nil {
		store = s
		defer store.Close()
	} else {
		log.Printf("run journal unavailable: %v", err)
	}

	model := tui.NewModel(tui.Options{
		Backend:       client,
		Store:         store,
		WindowDays:    cfg.Extraction.WindowDays,
		Version:       version.Version,
		TenantID:      cfg.TenantID,
		ClientID:      cfg.ClientID,
		ClientSecret:  config.ClientSecret(),
		Destination:   cfg.Extraction.Destination,
		LastWorkspace: cfg.LastWorkspace,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	model.SetSender(program.Send)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("TUI error: %v", err)
	}
}
