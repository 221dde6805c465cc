package main

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newSummaryCmd() *cobra.Command {
	var logDir string
	cmd := &cobra.Command{
		Use:   "summary [session.json]",
		Short: "Summarize a benchmark session log (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runSummary(cmd.OutOrStdout(), logDir, path)
		},
	}
	cmd.Flags().StringVar(&logDir, "log-dir", "benchmark_logs", "directory holding session logs")
	return cmd
}

func runSummary(w io.Writer, logDir, path string) error {
	if path == "" {
		latest, err := LatestLogFile(logDir)
		if err != nil {
			return err
		}
		path = latest
	}

	results, err := LoadResults(path)
	if err != nil {
		return err
	}
	PrintSummary(w, filepath.Base(path), results)
	return nil
}
