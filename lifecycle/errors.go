package lifecycle

// This file contains the error types surfaced by the run lifecycle.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/farmrun/farmrun/model"
)

// TransportError reports a binary upload or download that did not
// complete with a success response.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %v", e.Method, redactURL(e.URL), e.Err)
	}
	return fmt.Sprintf("%s %s failed: %d %s", e.Method, redactURL(e.URL), e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteProcessingError reports an upload the service failed to process.
type RemoteProcessingError struct {
	Upload  model.Upload
	Message string
}

func (e *RemoteProcessingError) Error() string {
	return fmt.Sprintf("upload %s failed processing: %s", e.Upload.Name, e.Message)
}

// SchedulingError reports a run request rejected by the service.
type SchedulingError struct {
	Label string
	Err   error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("failed to schedule run %s: %v", e.Label, e.Err)
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// RunFailedError reports a run whose result is FAILED.
type RunFailedError struct {
	Run     model.RunHandle
	Status  model.RunStatus
	Elapsed time.Duration
}

func (e *RunFailedError) Error() string {
	msg := fmt.Sprintf("run %s is %s (state %s) after %s", e.Run.Name, e.Status.Result, e.Status.State, e.Elapsed.Round(time.Second))
	if e.Status.Message != "" {
		msg += ": " + e.Status.Message
	}
	return msg
}

// CollectionError reports a failure that prevents collecting a run's
// artifacts as a whole, as opposed to a single artifact download.
type CollectionError struct {
	Op  string
	ARN string
	Err error
}

func (e *CollectionError) Error() string {
	if e.ARN != "" {
		return fmt.Sprintf("collection failed to %s for %s: %v", e.Op, e.ARN, e.Err)
	}
	return fmt.Sprintf("collection failed to %s: %v", e.Op, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a poll loop abandoned because its context ended.
// It wraps the context error.
type TimeoutError struct {
	Stage   string
	Elapsed time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s abandoned after %s: %v", e.Stage, e.Elapsed.Round(time.Second), e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
