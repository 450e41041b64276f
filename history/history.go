package history

// This file contains shared history utilities for saving and loading
// run records kept in the reports directory.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/farmrun/farmrun/model"
	"github.com/rs/zerolog"
)

// FileName is the name of the run record inside a run directory.
const FileName = "run.json"

type Entry struct {
	History  model.History
	FullPath string
}

// Save writes the run record into runDir.
func Save(runDir string, h *model.History) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, FileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write run record: %w", err)
	}
	return nil
}

// LoadEntries loads all run records found directly below reportsDir,
// newest first.
func LoadEntries(logger zerolog.Logger, reportsDir string) ([]Entry, error) {
	dirs, err := os.ReadDir(reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	var entries []Entry
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(reportsDir, d.Name())
		recordPath := filepath.Join(path, FileName)
		if _, err := os.Stat(recordPath); err != nil {
			continue
		}

		h, err := parseHistoryJSON(recordPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", recordPath).Msg("Failed to parse run.json")
			continue
		}

		entries = append(entries, Entry{
			History:  h,
			FullPath: path,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].History.Timestamp.After(entries[j].History.Timestamp)
	})
	return entries, nil
}

// parseHistoryJSON parses a run.json file.
func parseHistoryJSON(historyPath string) (model.History, error) {
	data, err := os.ReadFile(historyPath)
	if err != nil {
		return model.History{}, err
	}

	var h model.History
	if err := json.Unmarshal(data, &h); err != nil {
		return model.History{}, err
	}

	return h, nil
}
