package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/farmrun/farmrun/model"
	"github.com/rs/zerolog"
)

// DefaultUploadPollInterval is the pause between two upload status checks.
const DefaultUploadPollInterval = 5 * time.Second

// Uploader transfers local files to the service and waits until the
// service has processed them.
type Uploader struct {
	logger     zerolog.Logger
	service    Service
	transport  *Transport
	projectARN string
	interval   time.Duration
	wait       WaitFunc
}

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithUploadPollInterval sets the pause between status checks.
func WithUploadPollInterval(d time.Duration) UploaderOption {
	return func(u *Uploader) {
		if d > 0 {
			u.interval = d
		}
	}
}

// WithUploadWait replaces the function used to pause between status checks.
func WithUploadWait(wait WaitFunc) UploaderOption {
	return func(u *Uploader) {
		u.wait = wait
	}
}

// NewUploader creates an Uploader for the given project.
func NewUploader(logger zerolog.Logger, service Service, transport *Transport, projectARN string, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		logger:     logger,
		service:    service,
		transport:  transport,
		projectARN: projectARN,
		interval:   DefaultUploadPollInterval,
		wait:       Sleep,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload transfers req.Path under the name "<prefix>_<basename>" and
// blocks until the service reports it SUCCEEDED. The returned upload is
// never in state FAILED: a failed processing yields a
// RemoteProcessingError. There is no built-in limit on the wait; it ends
// with a TimeoutError when ctx does.
func (u *Uploader) Upload(ctx context.Context, req model.UploadRequest, prefix string) (model.Upload, error) {
	name := prefix + "_" + filepath.Base(req.Path)

	upload, err := u.service.CreateUpload(ctx, u.projectARN, name, req.Type, req.MimeType)
	if err != nil {
		return model.Upload{}, fmt.Errorf("failed to create upload %s: %w", name, err)
	}
	upload.Kind = req.Kind

	u.logger.Info().
		Str("file", req.Path).
		Str("name", upload.Name).
		Str("type", req.Type).
		Msg("Uploading file")

	if err := u.transport.Put(ctx, upload.URL, req.Path, req.MimeType); err != nil {
		return model.Upload{}, fmt.Errorf("failed to upload %s: %w", req.Path, err)
	}

	u.logger.Debug().Str("name", upload.Name).Msg("Upload transferred")

	started := time.Now()
	for {
		current, err := u.service.GetUpload(ctx, upload.ARN)
		if err != nil {
			return model.Upload{}, abandoned(ctx, "upload "+name, started, fmt.Errorf("failed to get upload %s: %w", upload.ARN, err))
		}
		current.Kind = req.Kind

		u.logger.Info().
			Str("name", current.Name).
			Str("status", string(current.Status)).
			Dur("elapsed", time.Since(started)).
			Msg("Upload processing")

		switch current.Status {
		case model.UploadStatusSucceeded:
			return current, nil
		case model.UploadStatusFailed:
			return model.Upload{}, &RemoteProcessingError{Upload: current, Message: current.Message}
		}

		if err := u.wait(ctx, u.interval); err != nil {
			return model.Upload{}, abandoned(ctx, "upload "+name, started, err)
		}
	}
}
