package cli

// This file contains the list command for displaying previous runs.

import (
	"fmt"
	"time"

	"github.com/farmrun/farmrun/history"
	"github.com/urfave/cli/v2"
)

func (a *App) list(ctx *cli.Context) error {
	limit := ctx.Int("limit")

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, cfg.ReportsDir)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, "No runs found")
		fmt.Fprintf(a.stdout, "Runs are saved to %s/<label>/\n", cfg.ReportsDir)
		return nil
	}

	displayRuns := entries
	if limit > 0 && limit < len(displayRuns) {
		displayRuns = displayRuns[:limit]
	}

	fmt.Fprintf(a.stdout, "\n=== Runs (%d total) ===\n\n", len(entries))

	for _, entry := range displayRuns {
		h := entry.History
		timestamp := h.Timestamp.Format("2006-01-02 15:04:05")
		duration := h.Duration.Round(time.Second)

		status := "✓"
		if h.ExitCode != 0 {
			status = "✗"
		}

		result := "-"
		if h.Run != nil {
			result = string(h.Run.Status.Result)
		}

		fmt.Fprintf(a.stdout, "%s  %s  [%s]  %s  result=%s\n", status, timestamp, duration, h.Label, result)
		if h.Target != nil && h.Target.DevicePoolARN != "" {
			fmt.Fprintf(a.stdout, "   Pool: %s\n", h.Target.DevicePoolARN)
		}
		if len(h.Artifacts) > 0 || len(h.Skipped) > 0 {
			fmt.Fprintf(a.stdout, "   Artifacts: %d downloaded, %d skipped\n", len(h.Artifacts), len(h.Skipped))
		}
		if h.Error != "" {
			fmt.Fprintf(a.stdout, "   Error: %s\n", h.Error)
		}
		fmt.Fprintf(a.stdout, "   %s\n", entry.FullPath)
		fmt.Fprintln(a.stdout)
	}

	fmt.Fprintf(a.stdout, "\nView a run: %s view <label>\n", AppName)

	return nil
}
