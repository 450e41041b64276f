package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/farmrun/farmrun/history"
	"github.com/farmrun/farmrun/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseViewArgs(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    string
		wantErr bool
	}{
		{
			name: "empty args - default to 0",
			in:   []string{},
			want: "0",
		},
		{
			name: "negative index",
			in:   []string{"-1"},
			want: "-1",
		},
		{
			name: "label prefix",
			in:   []string{"nightly-2026"},
			want: "nightly-2026",
		},
		{
			name:    "too many args",
			in:      []string{"0", "-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseViewArgs(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func testEntries() []history.Entry {
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	return []history.Entry{
		{History: model.History{Label: "nightly-2026-10-16-11-00-00abcdefgh", Timestamp: base.Add(2 * time.Hour)}},
		{History: model.History{Label: "smoke-2026-10-16-10-00-00abcdefgh", Timestamp: base.Add(time.Hour)}},
		{History: model.History{Label: "nightly-2026-10-16-09-00-00abcdefgh", Timestamp: base}},
		{History: model.History{Label: "2026-10-16-08-00-00abcdefgh", Timestamp: base.Add(-time.Hour)}},
	}
}

func TestSelectEntry(t *testing.T) {
	tests := []struct {
		name      string
		arg       string
		wantLabel string
		wantErr   string
	}{
		{name: "last", arg: "0", wantLabel: "nightly-2026-10-16-11-00-00abcdefgh"},
		{name: "second to last", arg: "-1", wantLabel: "smoke-2026-10-16-10-00-00abcdefgh"},
		{name: "third to last", arg: "-2", wantLabel: "nightly-2026-10-16-09-00-00abcdefgh"},
		{name: "out of range", arg: "-4", wantErr: "out of range"},
		{name: "year prefix", arg: "2026", wantLabel: "2026-10-16-08-00-00abcdefgh"},
		{name: "positive number without match", arg: "1", wantErr: "no run found"},
		{name: "label prefix picks newest match", arg: "nightly", wantLabel: "nightly-2026-10-16-11-00-00abcdefgh"},
		{name: "full label", arg: "nightly-2026-10-16-09", wantLabel: "nightly-2026-10-16-09-00-00abcdefgh"},
		{name: "unknown label", arg: "weekly", wantErr: "no run found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := selectEntry(testEntries(), tt.arg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, entry.History.Label)
		})
	}
}

func TestSelectEntry_NoRuns(t *testing.T) {
	_, err := selectEntry(nil, "0")
	require.ErrorContains(t, err, "no runs found")
}

func TestDisplayEntry(t *testing.T) {
	var out bytes.Buffer
	a := &App{logger: zerolog.Nop(), stdout: &out}

	a.displayEntry(&history.Entry{
		FullPath: "/reports/nightly",
		History: model.History{
			Label:    "nightly",
			ExitCode: 1,
			Error:    "run arn:run:1 failed",
			Run: &model.RunRecord{
				RunHandle: model.RunHandle{ARN: "arn:run:1"},
				Status:    model.RunStatus{State: model.RunStateCompleted, Result: model.RunResultFailed},
			},
			Artifacts: []model.ArtifactRecord{
				{Category: model.ArtifactCategoryLog, File: "Pixel 8/Tests Suite/Setup Test/LOGCAT_Logcat.logcat", Size: 2048},
			},
			Skipped: []model.ArtifactRecord{
				{Job: "Pixel 8", Suite: "Tests Suite", Test: "Setup Test", Name: "Video", Error: "404"},
			},
		},
	})

	s := out.String()
	assert.Contains(t, s, "=== Run: nightly ===")
	assert.Contains(t, s, "Status: COMPLETED / FAILED")
	assert.Contains(t, s, "/reports/nightly/Pixel 8/Tests Suite/Setup Test")
	assert.Contains(t, s, "LOGCAT_Logcat.logcat (2.0 KB)")
	assert.Contains(t, s, "Skipped (1):")
}
