package lifecycle

import (
	"context"

	"github.com/farmrun/farmrun/model"
	"github.com/rs/zerolog"
)

// Scheduler submits runs. It does not retry: a rejected request is a
// configuration problem for the caller.
type Scheduler struct {
	logger  zerolog.Logger
	service Service
}

// NewScheduler creates a Scheduler.
func NewScheduler(logger zerolog.Logger, service Service) *Scheduler {
	return &Scheduler{
		logger:  logger,
		service: service,
	}
}

// Schedule submits exactly one run request and returns once the service
// has accepted it.
func (s *Scheduler) Schedule(ctx context.Context, req ScheduleRequest) (model.RunHandle, error) {
	s.logger.Debug().
		Str("app", req.AppARN).
		Str("test_package", req.TestPackageARN).
		Str("device_pool", req.DevicePoolARN).
		Str("test_spec", req.TestSpecARN).
		Str("test_type", req.TestType).
		Msg("Scheduling run")

	run, err := s.service.ScheduleRun(ctx, req)
	if err != nil {
		return model.RunHandle{}, &SchedulingError{Label: req.Name, Err: err}
	}
	if run.Name == "" {
		run.Name = req.Name
	}

	s.logger.Info().
		Str("label", run.Name).
		Str("arn", run.ARN).
		Msg("Run scheduled")
	return run, nil
}
