package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mbarros/fabricusage/internal/config"
	"github.com/mbarros/fabricusage/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	if os.Getenv("FABRICUSAGE_DEBUG") != "" {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Config path: %s\n", config.ConfigPath())
		os.Exit(1)
	}

	root := cobra.Command{
		Use:   "fabricusage",
		Short: "fabricusage extracts Fabric capacity metrics into CSV files through an interactive terminal flow.",
		Run: func(_ *cobra.Command, _ []string) {
			runDashboard(cfg)
		},
	}

	root.AddCommand(newVersionCommand())
	root.AddCommand(newHistoryCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
