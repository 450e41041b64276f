package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/farmrun/farmrun/cli/devicefarm"
	"github.com/farmrun/farmrun/lifecycle"
	"github.com/farmrun/farmrun/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "farmrun"

// remoteService is the full set of service calls the commands use.
type remoteService interface {
	lifecycle.Service
	ListDevicePools(ctx context.Context, projectARN, poolType string) ([]devicefarm.DevicePool, error)
	ListUploads(ctx context.Context, projectARN, uploadType string) ([]model.Upload, error)
}

type App struct {
	logger zerolog.Logger
	cli    *cli.App

	// dial connects to the remote service; replaced in tests
	dial func(ctx context.Context, logger zerolog.Logger, cfg *Config) (remoteService, error)
	// client used for uploads and downloads, nil for the default
	httpClient *http.Client
	stdout     io.Writer
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		dial:   dialDeviceFarm,
		stdout: os.Stdout,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Run test packages on remote device pools and collect their artifacts",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:  "run",
		Usage: "Upload the app and test package, run them on a device pool and download all artifacts",
		Description: `Runs exactly one test run:

  1. upload the application and wait until it is processed
  2. upload the test package (and a local test spec, if given) the same way
  3. schedule the run on the device pool
  4. poll the run until it completes
  5. download every artifact into <reports-dir>/<label>/<job>/<suite>/<test>/

Settings are read from the config file (default farmrun.yaml) and can be
overridden by flags or FARMRUN_* environment variables.`,
		Action: app.run,
		Flags:  append(commonFlags(), runFlags()...),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "pools",
		Usage:  "List the device pools of the project",
		Action: app.pools,
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:  "type",
				Usage: "Device pool type (PRIVATE or CURATED)",
				Value: "PRIVATE",
			},
		),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "specs",
		Usage:  "List the test specs uploaded to the project",
		Action: app.specs,
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:  "type",
				Usage: "Upload type to list",
				Value: defaultTestSpecType,
			},
		),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "stop",
		Usage:     "Stop a scheduled run",
		ArgsUsage: "RUN_ARN",
		Action:    app.stop,
		Flags:     commonFlags(),
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous runs",
		Action: app.list,
		Flags: []cli.Flag{
			configFlag(),
			reportsDirFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "view",
		Usage:     "Show a previous run and its artifacts",
		ArgsUsage: "[INDEX|LABEL]",
		Action:    app.view,
		Flags: []cli.Flag{
			configFlag(),
			reportsDirFlag(),
		},
		Description: `Show a previous run and its artifacts.

Arguments:
  0           View last run (default)
  -1          View 2nd last run
  <label>     View the run whose label starts with <label>`,
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

func dialDeviceFarm(ctx context.Context, logger zerolog.Logger, cfg *Config) (remoteService, error) {
	return devicefarm.New(ctx, logger,
		devicefarm.WithRegion(cfg.Region),
		devicefarm.WithEndpoint(cfg.Endpoint),
	)
}
