package devicefarm

// This file contains a client for the AWS Device Farm API,
// exposing the operations farmrun needs in terms of its own model.

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm"
	"github.com/aws/aws-sdk-go-v2/service/devicefarm/types"
	"github.com/farmrun/farmrun/lifecycle"
	"github.com/farmrun/farmrun/model"
	"github.com/rs/zerolog"
)

// DefaultRegion is the only region Device Farm is offered in.
const DefaultRegion = "us-west-2"

// API is the subset of *devicefarm.Client used by Client.
type API interface {
	CreateUpload(ctx context.Context, params *devicefarm.CreateUploadInput, optFns ...func(*devicefarm.Options)) (*devicefarm.CreateUploadOutput, error)
	GetUpload(ctx context.Context, params *devicefarm.GetUploadInput, optFns ...func(*devicefarm.Options)) (*devicefarm.GetUploadOutput, error)
	ListUploads(ctx context.Context, params *devicefarm.ListUploadsInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ListUploadsOutput, error)
	ListDevicePools(ctx context.Context, params *devicefarm.ListDevicePoolsInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ListDevicePoolsOutput, error)
	ScheduleRun(ctx context.Context, params *devicefarm.ScheduleRunInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ScheduleRunOutput, error)
	GetRun(ctx context.Context, params *devicefarm.GetRunInput, optFns ...func(*devicefarm.Options)) (*devicefarm.GetRunOutput, error)
	StopRun(ctx context.Context, params *devicefarm.StopRunInput, optFns ...func(*devicefarm.Options)) (*devicefarm.StopRunOutput, error)
	ListJobs(ctx context.Context, params *devicefarm.ListJobsInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ListJobsOutput, error)
	ListSuites(ctx context.Context, params *devicefarm.ListSuitesInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ListSuitesOutput, error)
	ListTests(ctx context.Context, params *devicefarm.ListTestsInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ListTestsOutput, error)
	ListArtifacts(ctx context.Context, params *devicefarm.ListArtifactsInput, optFns ...func(*devicefarm.Options)) (*devicefarm.ListArtifactsOutput, error)
}

// Client talks to Device Farm on behalf of the run lifecycle.
type Client struct {
	logger zerolog.Logger
	api    API
	region string
}

var _ lifecycle.Service = (*Client)(nil)

// Option configures a Client.
type Option func(*options)

type options struct {
	region   string
	endpoint string
	api      API
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) {
		if region != "" {
			o.region = region
		}
	}
}

// WithEndpoint overrides the service endpoint, e.g. for a local emulator.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithAPI uses api instead of a client built from the AWS default config.
func WithAPI(api API) Option {
	return func(o *options) {
		o.api = api
	}
}

// New creates a Device Farm client. Credentials come from the AWS default
// credential chain.
func New(ctx context.Context, logger zerolog.Logger, opts ...Option) (*Client, error) {
	o := options{region: DefaultRegion}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		logger: logger,
		api:    o.api,
		region: o.region,
	}
	if c.api != nil {
		return c, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(o.region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	c.api = devicefarm.NewFromConfig(cfg, func(do *devicefarm.Options) {
		if o.endpoint != "" {
			do.BaseEndpoint = aws.String(o.endpoint)
		}
	})

	logger.Debug().
		Str("region", o.region).
		Str("endpoint", o.endpoint).
		Msg("Device Farm client configured")
	return c, nil
}

// Region returns the region this client is configured for.
func (c *Client) Region() string {
	return c.region
}

// CreateUpload reserves an upload slot and returns its pre-signed URL.
func (c *Client) CreateUpload(ctx context.Context, projectARN, name, uploadType, contentType string) (model.Upload, error) {
	out, err := c.api.CreateUpload(ctx, &devicefarm.CreateUploadInput{
		ProjectArn:  aws.String(projectARN),
		Name:        aws.String(name),
		Type:        types.UploadType(uploadType),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return model.Upload{}, err
	}
	if out.Upload == nil {
		return model.Upload{}, fmt.Errorf("create upload returned no upload")
	}
	return toUpload(out.Upload), nil
}

// GetUpload returns the current state of an upload.
func (c *Client) GetUpload(ctx context.Context, arn string) (model.Upload, error) {
	out, err := c.api.GetUpload(ctx, &devicefarm.GetUploadInput{Arn: aws.String(arn)})
	if err != nil {
		return model.Upload{}, err
	}
	if out.Upload == nil {
		return model.Upload{}, fmt.Errorf("upload %s not returned", arn)
	}
	return toUpload(out.Upload), nil
}

// ListUploads returns the uploads of a project, filtered by type when
// uploadType is not empty.
func (c *Client) ListUploads(ctx context.Context, projectARN, uploadType string) ([]model.Upload, error) {
	var uploads []model.Upload
	var token *string
	for {
		out, err := c.api.ListUploads(ctx, &devicefarm.ListUploadsInput{
			Arn:       aws.String(projectARN),
			Type:      types.UploadType(uploadType),
			NextToken: token,
		})
		if err != nil {
			return nil, err
		}
		for i := range out.Uploads {
			uploads = append(uploads, toUpload(&out.Uploads[i]))
		}
		if token = out.NextToken; token == nil {
			return uploads, nil
		}
	}
}

// DevicePool is a named set of devices runs can be scheduled on.
type DevicePool struct {
	ARN         string
	Name        string
	Description string
	Type        string
}

// ListDevicePools returns the device pools of a project, filtered by type
// (PRIVATE or CURATED) when poolType is not empty.
func (c *Client) ListDevicePools(ctx context.Context, projectARN, poolType string) ([]DevicePool, error) {
	var pools []DevicePool
	var token *string
	for {
		out, err := c.api.ListDevicePools(ctx, &devicefarm.ListDevicePoolsInput{
			Arn:       aws.String(projectARN),
			Type:      types.DevicePoolType(poolType),
			NextToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, p := range out.DevicePools {
			pools = append(pools, DevicePool{
				ARN:         aws.ToString(p.Arn),
				Name:        aws.ToString(p.Name),
				Description: aws.ToString(p.Description),
				Type:        string(p.Type),
			})
		}
		if token = out.NextToken; token == nil {
			return pools, nil
		}
	}
}

// ScheduleRun submits a run.
func (c *Client) ScheduleRun(ctx context.Context, req lifecycle.ScheduleRequest) (model.RunHandle, error) {
	test := &types.ScheduleRunTest{
		Type:           types.TestType(req.TestType),
		TestPackageArn: aws.String(req.TestPackageARN),
	}
	if req.TestSpecARN != "" {
		test.TestSpecArn = aws.String(req.TestSpecARN)
	}

	out, err := c.api.ScheduleRun(ctx, &devicefarm.ScheduleRunInput{
		ProjectArn:    aws.String(req.ProjectARN),
		AppArn:        aws.String(req.AppARN),
		DevicePoolArn: aws.String(req.DevicePoolARN),
		Name:          aws.String(req.Name),
		Test:          test,
	})
	if err != nil {
		return model.RunHandle{}, err
	}
	if out.Run == nil {
		return model.RunHandle{}, fmt.Errorf("schedule run returned no run")
	}
	return toRunHandle(out.Run), nil
}

// GetRun returns the current status of a run.
func (c *Client) GetRun(ctx context.Context, arn string) (model.RunStatus, error) {
	out, err := c.api.GetRun(ctx, &devicefarm.GetRunInput{Arn: aws.String(arn)})
	if err != nil {
		return model.RunStatus{}, err
	}
	if out.Run == nil {
		return model.RunStatus{}, fmt.Errorf("run %s not returned", arn)
	}
	return toRunStatus(out.Run), nil
}

// StopRun asks the service to stop a run.
func (c *Client) StopRun(ctx context.Context, arn string) (model.RunStatus, error) {
	out, err := c.api.StopRun(ctx, &devicefarm.StopRunInput{Arn: aws.String(arn)})
	if err != nil {
		return model.RunStatus{}, err
	}
	if out.Run == nil {
		return model.RunStatus{}, nil
	}
	return toRunStatus(out.Run), nil
}

// ListJobs returns the jobs of a run, one per device.
func (c *Client) ListJobs(ctx context.Context, runARN string) ([]model.Node, error) {
	var nodes []model.Node
	var token *string
	for {
		out, err := c.api.ListJobs(ctx, &devicefarm.ListJobsInput{Arn: aws.String(runARN), NextToken: token})
		if err != nil {
			return nil, err
		}
		for _, j := range out.Jobs {
			nodes = append(nodes, model.Node{ARN: aws.ToString(j.Arn), Name: aws.ToString(j.Name)})
		}
		if token = out.NextToken; token == nil {
			return nodes, nil
		}
	}
}

// ListSuites returns the suites of a job.
func (c *Client) ListSuites(ctx context.Context, jobARN string) ([]model.Node, error) {
	var nodes []model.Node
	var token *string
	for {
		out, err := c.api.ListSuites(ctx, &devicefarm.ListSuitesInput{Arn: aws.String(jobARN), NextToken: token})
		if err != nil {
			return nil, err
		}
		for _, s := range out.Suites {
			nodes = append(nodes, model.Node{ARN: aws.ToString(s.Arn), Name: aws.ToString(s.Name)})
		}
		if token = out.NextToken; token == nil {
			return nodes, nil
		}
	}
}

// ListTests returns the tests of a suite.
func (c *Client) ListTests(ctx context.Context, suiteARN string) ([]model.Node, error) {
	var nodes []model.Node
	var token *string
	for {
		out, err := c.api.ListTests(ctx, &devicefarm.ListTestsInput{Arn: aws.String(suiteARN), NextToken: token})
		if err != nil {
			return nil, err
		}
		for _, t := range out.Tests {
			nodes = append(nodes, model.Node{ARN: aws.ToString(t.Arn), Name: aws.ToString(t.Name)})
		}
		if token = out.NextToken; token == nil {
			return nodes, nil
		}
	}
}

// ListArtifacts returns the artifacts of one category produced by a test.
func (c *Client) ListArtifacts(ctx context.Context, testARN string, category model.ArtifactCategory) ([]model.RemoteArtifact, error) {
	var artifacts []model.RemoteArtifact
	var token *string
	for {
		out, err := c.api.ListArtifacts(ctx, &devicefarm.ListArtifactsInput{
			Arn:       aws.String(testARN),
			Type:      types.ArtifactCategory(category),
			NextToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, a := range out.Artifacts {
			artifacts = append(artifacts, model.RemoteArtifact{
				ARN:       aws.ToString(a.Arn),
				Name:      aws.ToString(a.Name),
				Type:      string(a.Type),
				Extension: aws.ToString(a.Extension),
				URL:       aws.ToString(a.Url),
			})
		}
		if token = out.NextToken; token == nil {
			return artifacts, nil
		}
	}
}

func toUpload(u *types.Upload) model.Upload {
	return model.Upload{
		ARN:     aws.ToString(u.Arn),
		Name:    aws.ToString(u.Name),
		Type:    string(u.Type),
		URL:     aws.ToString(u.Url),
		Status:  model.UploadStatus(u.Status),
		Message: aws.ToString(u.Message),
	}
}

func toRunHandle(r *types.Run) model.RunHandle {
	return model.RunHandle{
		ARN:     aws.ToString(r.Arn),
		Name:    aws.ToString(r.Name),
		Started: aws.ToTime(r.Created),
	}
}

// toRunStatus maps a Device Farm run onto the lifecycle states. Device
// Farm reports every pre-execution phase (PENDING, SCHEDULING, ...) under
// its own name and has no ERRORED status: an ERRORED result on a
// COMPLETED run is surfaced as is.
func toRunStatus(r *types.Run) model.RunStatus {
	return model.RunStatus{
		State:   model.RunState(r.Status),
		Result:  model.RunResult(r.Result),
		Message: aws.ToString(r.Message),
	}
}
