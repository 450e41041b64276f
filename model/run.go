package model

import "time"

// UploadKind identifies the role an uploaded file plays in a run
type UploadKind string

const (
	UploadKindApplication UploadKind = "application-binary"
	UploadKindTestPackage UploadKind = "test-package"
	UploadKindTestSpec    UploadKind = "test-spec"
)

// UploadStatus is the processing state the service reports for an upload
type UploadStatus string

const (
	UploadStatusInitialized UploadStatus = "INITIALIZED"
	UploadStatusProcessing  UploadStatus = "PROCESSING"
	UploadStatusSucceeded   UploadStatus = "SUCCEEDED"
	UploadStatusFailed      UploadStatus = "FAILED"
)

// UploadRequest describes a local file to hand to the service
type UploadRequest struct {
	// Local file to transfer
	Path string
	// Role of the file in the run
	Kind UploadKind
	// Service-specific upload type (e.g. ANDROID_APP, APPIUM_PYTHON_TEST_PACKAGE)
	Type string
	// Content type sent with the transfer
	MimeType string
}

// Upload is the service's view of an uploaded file
type Upload struct {
	ARN     string       `json:"arn"`
	Name    string       `json:"name"`
	Kind    UploadKind   `json:"kind,omitempty"`
	Type    string       `json:"type,omitempty"`
	URL     string       `json:"-"`
	Status  UploadStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// RunHandle identifies a scheduled run
type RunHandle struct {
	ARN     string    `json:"arn"`
	Name    string    `json:"name"`
	Started time.Time `json:"started"`
}

// RunState is the execution state of a run
type RunState string

const (
	RunStateSubmitted RunState = "SUBMITTED"
	RunStateRunning   RunState = "RUNNING"
	RunStateCompleted RunState = "COMPLETED"
	RunStateErrored   RunState = "ERRORED"
)

// Terminal reports whether no further transitions follow this state.
func (s RunState) Terminal() bool {
	return s == RunStateCompleted || s == RunStateErrored
}

// RunResult is the outcome the service reports for a run
type RunResult string

const (
	RunResultPending RunResult = "PENDING"
	RunResultPassed  RunResult = "PASSED"
	RunResultFailed  RunResult = "FAILED"
	RunResultErrored RunResult = "ERRORED"
	RunResultStopped RunResult = "STOPPED"
	RunResultSkipped RunResult = "SKIPPED"
	RunResultWarned  RunResult = "WARNED"
)

// RunStatus is the latest snapshot of a run
type RunStatus struct {
	State   RunState  `json:"state"`
	Result  RunResult `json:"result"`
	Message string    `json:"message,omitempty"`
}

// Node is one entry of the job/suite/test hierarchy of a run
type Node struct {
	ARN  string
	Name string
}

// ArtifactCategory groups produced artifacts for listing
type ArtifactCategory string

const (
	ArtifactCategoryFile       ArtifactCategory = "FILE"
	ArtifactCategoryScreenshot ArtifactCategory = "SCREENSHOT"
	ArtifactCategoryLog        ArtifactCategory = "LOG"
)

// ArtifactCategories lists the categories in collection order.
var ArtifactCategories = []ArtifactCategory{
	ArtifactCategoryFile,
	ArtifactCategoryScreenshot,
	ArtifactCategoryLog,
}

// RemoteArtifact is an artifact as listed by the service
type RemoteArtifact struct {
	ARN       string
	Name      string
	Type      string
	Extension string
	URL       string
}

// ArtifactRecord describes one artifact visited during collection
type ArtifactRecord struct {
	Job      string           `json:"job"`
	Suite    string           `json:"suite"`
	Test     string           `json:"test"`
	Category ArtifactCategory `json:"category"`
	// Service-specific artifact type (e.g. DEVICE_LOG, SCREENSHOT)
	Type      string `json:"type,omitempty"`
	Name      string `json:"name"`
	Extension string `json:"extension,omitempty"`
	URL       string `json:"-"`
	// Path relative to the run directory
	File string `json:"file,omitempty"`
	Size int64  `json:"size,omitempty"`
	// Set when the artifact could not be downloaded
	Error string `json:"error,omitempty"`
}
