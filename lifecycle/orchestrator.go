package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/farmrun/farmrun/model"
	"github.com/rs/zerolog"
)

const stopRunTimeout = 30 * time.Second

// Plan describes one run to execute.
type Plan struct {
	// Unique run label, used as upload prefix, run name and report directory
	Label         string
	ProjectARN    string
	DevicePoolARN string
	// Remote test spec; ignored when TestSpec is set
	TestSpecARN string
	TestType    string
	App         model.UploadRequest
	TestPackage model.UploadRequest
	// Optional local test spec uploaded alongside the test package
	TestSpec *model.UploadRequest
	// Directory the run's report directory is created in
	ReportsDir string
	// Bounds uploading, scheduling and polling; zero means no limit.
	// Collection is not bounded by it.
	Timeout time.Duration
}

// Outcome is what an orchestration produced, filled in as far as it got.
type Outcome struct {
	Label      string
	RunDir     string
	Started    time.Time
	Uploads    []model.Upload
	Run        *model.RunHandle
	Status     model.RunStatus
	Collection *Collection
}

// Orchestrator sequences upload, scheduling, polling and collection of a
// single run.
type Orchestrator struct {
	logger    zerolog.Logger
	service   Service
	uploader  *Uploader
	scheduler *Scheduler
	poller    *Poller
	collector *Collector
}

// NewOrchestrator wires the lifecycle stages together.
func NewOrchestrator(logger zerolog.Logger, service Service, uploader *Uploader, scheduler *Scheduler, poller *Poller, collector *Collector) *Orchestrator {
	return &Orchestrator{
		logger:    logger,
		service:   service,
		uploader:  uploader,
		scheduler: scheduler,
		poller:    poller,
		collector: collector,
	}
}

// Run executes plan. The returned Outcome is never nil.
//
// Failures before the run completes abort without collecting. A run whose
// result is FAILED is still collected, then its RunFailedError is
// returned. When polling is abandoned the run is stopped on a best-effort
// basis.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) (*Outcome, error) {
	outcome := &Outcome{
		Label:   plan.Label,
		Started: time.Now(),
	}
	logger := o.logger.With().Str("label", plan.Label).Logger()

	runDir, err := CreateRunDir(plan.ReportsDir, plan.Label)
	if err != nil {
		return outcome, err
	}
	outcome.RunDir = runDir

	logger.Info().Str("dir", runDir).Msg("Starting run")

	stageCtx := ctx
	if plan.Timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, plan.Timeout)
		defer cancel()
	}

	app, err := o.upload(stageCtx, logger, outcome, plan.App)
	if err != nil {
		return outcome, err
	}
	testPackage, err := o.upload(stageCtx, logger, outcome, plan.TestPackage)
	if err != nil {
		return outcome, err
	}
	testSpecARN := plan.TestSpecARN
	if plan.TestSpec != nil {
		testSpec, err := o.upload(stageCtx, logger, outcome, *plan.TestSpec)
		if err != nil {
			return outcome, err
		}
		testSpecARN = testSpec.ARN
	}

	run, err := o.scheduler.Schedule(stageCtx, ScheduleRequest{
		ProjectARN:     plan.ProjectARN,
		AppARN:         app.ARN,
		TestPackageARN: testPackage.ARN,
		DevicePoolARN:  plan.DevicePoolARN,
		TestSpecARN:    testSpecARN,
		TestType:       plan.TestType,
		Name:           plan.Label,
	})
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(outcome.Started)).Msg("Scheduling failed")
		return outcome, err
	}
	if run.Started.IsZero() {
		run.Started = time.Now()
	}
	outcome.Run = &run

	status, err := o.poller.AwaitCompletion(stageCtx, run)
	outcome.Status = status

	var runFailed *RunFailedError
	var timeout *TimeoutError
	switch {
	case err == nil:
		logger.Info().
			Str("state", string(status.State)).
			Str("result", string(status.Result)).
			Dur("elapsed", time.Since(run.Started)).
			Msg("Run finished")
	case errors.As(err, &runFailed):
		logger.Error().
			Err(err).
			Dur("elapsed", time.Since(run.Started)).
			Msg("Run failed, collecting artifacts anyway")
	case errors.As(err, &timeout):
		logger.Error().Err(err).Msg("Stopped waiting for run")
		o.stop(ctx, logger, run)
		return outcome, err
	default:
		logger.Error().Err(err).Dur("elapsed", time.Since(run.Started)).Msg("Polling run failed")
		return outcome, err
	}

	logger.Info().Msg("Pulling artifacts")
	collection, collectErr := o.collector.Collect(ctx, run, runDir)
	outcome.Collection = collection
	if collectErr != nil {
		logger.Error().Err(collectErr).Dur("elapsed", time.Since(outcome.Started)).Msg("Collection failed")
		if runFailed != nil {
			return outcome, errors.Join(runFailed, collectErr)
		}
		return outcome, collectErr
	}

	logger.Info().Dur("elapsed", time.Since(outcome.Started)).Msg("Finished execution")
	if runFailed != nil {
		return outcome, runFailed
	}
	return outcome, nil
}

func (o *Orchestrator) upload(ctx context.Context, logger zerolog.Logger, outcome *Outcome, req model.UploadRequest) (model.Upload, error) {
	upload, err := o.uploader.Upload(ctx, req, outcome.Label)
	if err != nil {
		logger.Error().
			Err(err).
			Str("file", req.Path).
			Dur("elapsed", time.Since(outcome.Started)).
			Msg("Upload failed")
		return model.Upload{}, err
	}
	outcome.Uploads = append(outcome.Uploads, upload)
	return upload, nil
}

// stop asks the service to stop run. It uses its own deadline since ctx
// has usually ended by now.
func (o *Orchestrator) stop(ctx context.Context, logger zerolog.Logger, run model.RunHandle) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopRunTimeout)
	defer cancel()

	status, err := o.service.StopRun(stopCtx, run.ARN)
	if err != nil {
		logger.Warn().Err(err).Str("arn", run.ARN).Msg("Failed to stop run")
		return
	}
	logger.Info().
		Str("arn", run.ARN).
		Str("state", string(status.State)).
		Msg("Stop requested")
}
