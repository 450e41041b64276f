package cli

// This file contains the view command for displaying a recorded run.

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/farmrun/farmrun/history"
	"github.com/farmrun/farmrun/model"
	"github.com/urfave/cli/v2"
)

func parseViewArgs(in []string) (string, error) {
	switch len(in) {
	case 0:
		return "0", nil
	case 1:
		return in[0], nil
	default:
		return "", fmt.Errorf("expected at most one argument, got %d", len(in))
	}
}

// selectEntry picks an entry by index (0 = last, -1 = second to last, ...)
// or by label prefix. Positive numbers are label prefixes, since labels
// without a name prefix start with the year. entries must be sorted
// newest first.
func selectEntry(entries []history.Entry, arg string) (*history.Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no runs found")
	}

	if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil && parsed <= 0 {
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d runs)", arg, len(entries))
		}
		return &entries[index], nil
	}

	for i := range entries {
		if strings.HasPrefix(entries[i].History.Label, arg) {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no run found matching label: %s", arg)
}

func (a *App) view(ctx *cli.Context) error {
	arg, err := parseViewArgs(ctx.Args().Slice())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, cfg.ReportsDir)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	entry, err := selectEntry(entries, arg)
	if err != nil {
		return err
	}

	a.displayEntry(entry)
	return nil
}

func (a *App) displayEntry(entry *history.Entry) {
	h := entry.History
	out := a.stdout

	fmt.Fprintf(out, "=== Run: %s ===\n", h.Label)
	fmt.Fprintf(out, "Time: %s\n", h.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Duration: %s\n", h.Duration)
	fmt.Fprintf(out, "Exit Code: %d\n", h.ExitCode)
	if h.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", h.Error)
	}
	if h.Target != nil {
		fmt.Fprintf(out, "Project: %s\n", h.Target.ProjectARN)
		fmt.Fprintf(out, "Device Pool: %s\n", h.Target.DevicePoolARN)
		if h.Target.TestSpecARN != "" {
			fmt.Fprintf(out, "Test Spec: %s\n", h.Target.TestSpecARN)
		}
	}
	for _, u := range h.Uploads {
		fmt.Fprintf(out, "Upload: %s (%s) %s\n", u.Name, u.Kind, u.ARN)
	}
	if h.Run != nil {
		fmt.Fprintf(out, "Run: %s\n", h.Run.ARN)
		fmt.Fprintf(out, "Status: %s / %s\n", h.Run.Status.State, h.Run.Status.Result)
		if h.Run.Status.Message != "" {
			fmt.Fprintf(out, "Message: %s\n", h.Run.Status.Message)
		}
	}
	fmt.Fprintln(out)

	if len(h.Artifacts) == 0 && len(h.Skipped) == 0 {
		fmt.Fprintln(out, "No artifacts recorded")
		fmt.Fprintf(out, "Run directory: %s\n", entry.FullPath)
		return
	}

	fmt.Fprintf(out, "Artifacts (%d):\n", len(h.Artifacts))
	printArtifacts(out, entry.FullPath, h.Artifacts)
	if len(h.Skipped) > 0 {
		fmt.Fprintf(out, "\nSkipped (%d):\n", len(h.Skipped))
		for _, s := range h.Skipped {
			fmt.Fprintf(out, "  %s/%s/%s  %s: %s\n", s.Job, s.Suite, s.Test, s.Name, s.Error)
		}
	}
}

// printArtifacts prints artifacts grouped by test directory.
func printArtifacts(out io.Writer, runDir string, artifacts []model.ArtifactRecord) {
	var current string
	for _, r := range artifacts {
		dir := filepath.Dir(filepath.Join(runDir, r.File))
		if dir != current {
			fmt.Fprintf(out, "  %s\n", dir)
			current = dir
		}
		fmt.Fprintf(out, "    %-10s %s (%.1f KB)\n", r.Category, filepath.Base(r.File), float64(r.Size)/1024)
	}
}
