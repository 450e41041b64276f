package cli

// This file contains the run command: one full upload, schedule, poll and
// collect cycle.

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmrun/farmrun/lifecycle"
	"github.com/urfave/cli/v2"
)

func (a *App) run(ctx *cli.Context) error {
	startTime := time.Now()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	label, err := lifecycle.NewLabel(cfg.NamePrefix, startTime)
	if err != nil {
		return err
	}

	// Interrupts abandon the run the same way a timeout does
	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := a.dial(runCtx, a.logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	transport := lifecycle.NewTransport(a.httpClient)
	orchestrator := lifecycle.NewOrchestrator(a.logger, svc,
		lifecycle.NewUploader(a.logger, svc, transport, cfg.ProjectARN,
			lifecycle.WithUploadPollInterval(cfg.UploadPollInterval),
		),
		lifecycle.NewScheduler(a.logger, svc),
		lifecycle.NewPoller(a.logger, svc,
			lifecycle.WithRunPollInterval(cfg.RunPollInterval),
		),
		lifecycle.NewCollector(a.logger, svc, transport),
	)

	outcome, runErr := orchestrator.Run(runCtx, cfg.plan(label))

	if outcome.RunDir != "" {
		if err := a.recordRun(ctx, cfg, outcome, runErr, startTime); err != nil {
			// Don't fail the run on recording errors
			a.logger.Warn().Err(err).Msg("Failed to record run")
		}
	}

	if runErr != nil {
		return runErr
	}

	a.logger.Info().
		Str("label", label).
		Str("result", string(outcome.Status.Result)).
		Int("artifacts", len(outcome.Collection.Artifacts)).
		Int("skipped", len(outcome.Collection.Skipped)).
		Str("dir", outcome.RunDir).
		Dur("elapsed", time.Since(startTime)).
		Msg("Run complete")
	return nil
}
