package cli

// This file contains the commands that look up project resources
// without starting a run.

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

func (a *App) pools(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.requireProject(); err != nil {
		return err
	}

	svc, err := a.dial(ctx.Context, a.logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	pools, err := svc.ListDevicePools(ctx.Context, cfg.ProjectARN, ctx.String("type"))
	if err != nil {
		return err
	}
	if len(pools) == 0 {
		fmt.Fprintln(a.stdout, "No device pools found")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tARN\tDESCRIPTION")
	for _, p := range pools {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Type, p.ARN, p.Description)
	}
	return w.Flush()
}

func (a *App) specs(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.requireProject(); err != nil {
		return err
	}

	svc, err := a.dial(ctx.Context, a.logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	uploads, err := svc.ListUploads(ctx.Context, cfg.ProjectARN, ctx.String("type"))
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		fmt.Fprintln(a.stdout, "No test specs found")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tARN")
	for _, u := range uploads {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.Name, u.Status, u.ARN)
	}
	return w.Flush()
}

func (a *App) stop(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one run ARN, got %d arguments", ctx.NArg())
	}
	arn := ctx.Args().First()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	svc, err := a.dial(ctx.Context, a.logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	status, err := svc.StopRun(ctx.Context, arn)
	if err != nil {
		return fmt.Errorf("failed to stop run: %w", err)
	}
	a.logger.Info().
		Str("arn", arn).
		Str("state", string(status.State)).
		Str("result", string(status.Result)).
		Msg("Stop requested")
	return nil
}
