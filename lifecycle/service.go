// Package lifecycle drives a remote test run from upload to collected
// artifacts: upload and wait for processing, schedule, poll to
// completion, then download every artifact into a local report tree.
package lifecycle

import (
	"context"
	"time"

	"github.com/farmrun/farmrun/model"
)

// Service is the subset of the remote execution service API the
// lifecycle needs. It is satisfied by devicefarm.Client and by fakes in
// tests.
type Service interface {
	CreateUpload(ctx context.Context, projectARN, name, uploadType, contentType string) (model.Upload, error)
	GetUpload(ctx context.Context, arn string) (model.Upload, error)
	ScheduleRun(ctx context.Context, req ScheduleRequest) (model.RunHandle, error)
	GetRun(ctx context.Context, arn string) (model.RunStatus, error)
	StopRun(ctx context.Context, arn string) (model.RunStatus, error)
	ListJobs(ctx context.Context, runARN string) ([]model.Node, error)
	ListSuites(ctx context.Context, jobARN string) ([]model.Node, error)
	ListTests(ctx context.Context, suiteARN string) ([]model.Node, error)
	ListArtifacts(ctx context.Context, testARN string, category model.ArtifactCategory) ([]model.RemoteArtifact, error)
}

// ScheduleRequest holds everything needed to schedule one run.
type ScheduleRequest struct {
	ProjectARN     string
	AppARN         string
	TestPackageARN string
	DevicePoolARN  string
	TestSpecARN    string
	TestType       string
	Name           string
}

// WaitFunc pauses between two polls. It returns early with the
// context's error when ctx ends.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default WaitFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// abandoned turns an error seen while ctx has ended into a TimeoutError.
func abandoned(ctx context.Context, stage string, started time.Time, err error) error {
	if ctx.Err() == nil {
		return err
	}
	return &TimeoutError{
		Stage:   stage,
		Elapsed: time.Since(started),
		Err:     ctx.Err(),
	}
}
