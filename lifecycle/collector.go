package lifecycle

import (
	"context"
	"os"
	"path/filepath"

	"github.com/farmrun/farmrun/model"
	"github.com/rs/zerolog"
)

// Collection is the outcome of walking a run's artifacts.
type Collection struct {
	// Artifacts written to disk, in traversal order
	Artifacts []model.ArtifactRecord
	// Artifacts that could not be downloaded, with Error set
	Skipped []model.ArtifactRecord
}

// Collector downloads every artifact of a finished run.
type Collector struct {
	logger    zerolog.Logger
	service   Service
	transport *Transport
}

// NewCollector creates a Collector.
func NewCollector(logger zerolog.Logger, service Service, transport *Transport) *Collector {
	return &Collector{
		logger:    logger,
		service:   service,
		transport: transport,
	}
}

// Collect walks run -> job -> suite -> test -> artifact category, each
// level listed fresh from the service, and writes every artifact below
// root. A failed download is logged and recorded in Skipped; a failed
// listing aborts with a CollectionError and the partial collection.
// Running it again over the same root overwrites files of the same name.
func (c *Collector) Collect(ctx context.Context, run model.RunHandle, root string) (*Collection, error) {
	collection := &Collection{}

	jobs, err := c.service.ListJobs(ctx, run.ARN)
	if err != nil {
		return collection, &CollectionError{Op: "list jobs", ARN: run.ARN, Err: err}
	}

	for _, job := range jobs {
		if err := c.collectJob(ctx, job, root, collection); err != nil {
			return collection, err
		}
	}

	c.logger.Info().
		Str("label", run.Name).
		Int("artifacts", len(collection.Artifacts)).
		Int("skipped", len(collection.Skipped)).
		Msg("Artifacts collected")
	return collection, nil
}

func (c *Collector) collectJob(ctx context.Context, job model.Node, root string, collection *Collection) error {
	suites, err := c.service.ListSuites(ctx, job.ARN)
	if err != nil {
		return &CollectionError{Op: "list suites", ARN: job.ARN, Err: err}
	}
	for _, suite := range suites {
		tests, err := c.service.ListTests(ctx, suite.ARN)
		if err != nil {
			return &CollectionError{Op: "list tests", ARN: suite.ARN, Err: err}
		}
		for _, test := range tests {
			if err := c.collectTest(ctx, job, suite, test, root, collection); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Collector) collectTest(ctx context.Context, job, suite, test model.Node, root string, collection *Collection) error {
	for _, category := range model.ArtifactCategories {
		artifacts, err := c.service.ListArtifacts(ctx, test.ARN, category)
		if err != nil {
			return &CollectionError{Op: "list " + string(category) + " artifacts", ARN: test.ARN, Err: err}
		}
		for _, artifact := range artifacts {
			record := model.ArtifactRecord{
				Job:       job.Name,
				Suite:     suite.Name,
				Test:      test.Name,
				Category:  category,
				Type:      artifact.Type,
				Name:      artifact.Name,
				Extension: artifact.Extension,
				URL:       artifact.URL,
			}
			if err := c.save(ctx, root, &record); err != nil {
				if ctx.Err() != nil {
					return &CollectionError{Op: "download artifacts", ARN: test.ARN, Err: ctx.Err()}
				}
				c.logger.Warn().
					Err(err).
					Str("test", test.Name).
					Str("artifact", record.Name).
					Msg("Failed to download artifact, skipping")
				record.Error = err.Error()
				collection.Skipped = append(collection.Skipped, record)
				continue
			}
			collection.Artifacts = append(collection.Artifacts, record)
		}
	}
	return nil
}

// save downloads one artifact and fills in its File and Size.
func (c *Collector) save(ctx context.Context, root string, record *model.ArtifactRecord) error {
	kind := record.Type
	if kind == "" {
		kind = string(record.Category)
	}
	file, err := ArtifactPath(record.Job, record.Suite, record.Test, kind, record.Name, record.Extension)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(root, filepath.Dir(file)), 0755); err != nil {
		return err
	}

	c.logger.Info().Str("file", file).Msg("Downloading artifact")

	n, err := c.transport.Download(ctx, record.URL, filepath.Join(root, file))
	if err != nil {
		return err
	}
	record.File = file
	record.Size = n
	return nil
}
