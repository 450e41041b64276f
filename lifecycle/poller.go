package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/farmrun/farmrun/model"
	"github.com/rs/zerolog"
)

// DefaultRunPollInterval is the pause between two run status checks.
const DefaultRunPollInterval = 10 * time.Second

// Poller waits for a scheduled run to finish.
type Poller struct {
	logger   zerolog.Logger
	service  Service
	interval time.Duration
	wait     WaitFunc
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithRunPollInterval sets the pause between status checks.
func WithRunPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRunWait replaces the function used to pause between status checks.
func WithRunWait(wait WaitFunc) PollerOption {
	return func(p *Poller) {
		p.wait = wait
	}
}

// NewPoller creates a Poller.
func NewPoller(logger zerolog.Logger, service Service, opts ...PollerOption) *Poller {
	p := &Poller{
		logger:   logger,
		service:  service,
		interval: DefaultRunPollInterval,
		wait:     Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AwaitCompletion polls run until it reaches a terminal state and returns
// the final status.
//
// A FAILED result ends polling on the tick it is observed, whatever the
// state: the returned error is a RunFailedError and the returned status is
// that last snapshot, so callers can still collect the run's artifacts.
// The loop has no limit of its own and ends with a TimeoutError when ctx
// does.
func (p *Poller) AwaitCompletion(ctx context.Context, run model.RunHandle) (model.RunStatus, error) {
	started := run.Started
	if started.IsZero() {
		started = time.Now()
	}

	var last model.RunStatus
	for {
		status, err := p.service.GetRun(ctx, run.ARN)
		if err != nil {
			return last, abandoned(ctx, "run "+run.Name, started, fmt.Errorf("failed to get run %s: %w", run.ARN, err))
		}
		last = status

		if status.Result == model.RunResultFailed {
			return status, &RunFailedError{
				Run:     run,
				Status:  status,
				Elapsed: time.Since(started),
			}
		}
		if status.State.Terminal() {
			return status, nil
		}

		p.logger.Info().
			Str("label", run.Name).
			Str("state", string(status.State)).
			Dur("elapsed", time.Since(started)).
			Msg("Run in progress")

		if err := p.wait(ctx, p.interval); err != nil {
			return last, abandoned(ctx, "run "+run.Name, started, err)
		}
	}
}
