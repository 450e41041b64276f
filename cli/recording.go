package cli

// This file contains run recording functionality for saving run metadata
// to run.json in the run's report directory.

import (
	"os"
	"time"

	"github.com/farmrun/farmrun/history"
	"github.com/farmrun/farmrun/lifecycle"
	"github.com/farmrun/farmrun/model"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func (a *App) recordRun(ctx *cli.Context, cfg *Config, outcome *lifecycle.Outcome, runErr error, startTime time.Time) error {
	workDir, _ := os.Getwd()

	record := &model.History{
		ID:        uuid.New().String(),
		Label:     outcome.Label,
		Timestamp: startTime,
		Args:      append([]string{ctx.Command.Name}, ctx.Args().Slice()...),
		WorkDir:   workDir,
		Duration:  time.Since(startTime),
		Target: &model.Target{
			Region:        cfg.Region,
			ProjectARN:    cfg.ProjectARN,
			DevicePoolARN: cfg.DevicePoolARN,
			TestSpecARN:   cfg.TestSpecARN,
			TestType:      cfg.TestType,
		},
		Uploads: outcome.Uploads,
	}
	for _, u := range outcome.Uploads {
		if u.Kind == model.UploadKindTestSpec {
			record.Target.TestSpecARN = u.ARN
		}
	}
	if outcome.Run != nil {
		record.Run = &model.RunRecord{
			RunHandle: *outcome.Run,
			Status:    outcome.Status,
		}
	}
	if outcome.Collection != nil {
		record.Artifacts = outcome.Collection.Artifacts
		record.Skipped = outcome.Collection.Skipped
	}
	if runErr != nil {
		record.ExitCode = 1
		record.Error = runErr.Error()
	}

	if err := history.Save(outcome.RunDir, record); err != nil {
		return err
	}

	a.logger.Debug().Str("dir", outcome.RunDir).Str("id", record.ID).Msg("Recorded run")
	return nil
}
