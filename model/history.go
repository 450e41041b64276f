package model

import "time"

// History represents a single farmrun execution.
// It is persisted as run.json inside the run's report directory.
type History struct {
	// Unique ID for this execution (uuid)
	ID string `json:"id"`
	// Unique run label, also the name of the report directory
	Label string `json:"label"`
	// Timestamp when the execution started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Working directory the command was run from
	WorkDir string `json:"workdir,omitempty"`
	// Exit code of the execution
	ExitCode int `json:"exit_code"`
	// Error message if the execution failed
	Error string `json:"error,omitempty"`
	// Duration of execution
	Duration time.Duration `json:"duration"`
	// Remote target the run was scheduled against
	Target *Target `json:"target,omitempty"`
	// Files uploaded for this run
	Uploads []Upload `json:"uploads,omitempty"`
	// Scheduled run, if scheduling succeeded
	Run *RunRecord `json:"run,omitempty"`
	// Artifacts written to the report directory
	Artifacts []ArtifactRecord `json:"artifacts,omitempty"`
	// Artifacts that could not be downloaded
	Skipped []ArtifactRecord `json:"skipped,omitempty"`
}

// Target contains the project and pool a run was scheduled against
type Target struct {
	// Region of the service endpoint
	Region string `json:"region,omitempty"`
	// Project the uploads and run belong to
	ProjectARN string `json:"project_arn,omitempty"`
	// Device pool the run executed on
	DevicePoolARN string `json:"device_pool_arn,omitempty"`
	// Test spec used for the run
	TestSpecARN string `json:"test_spec_arn,omitempty"`
	// Test type (e.g. APPIUM_PYTHON)
	TestType string `json:"test_type,omitempty"`
}

// RunRecord contains the scheduled run and its last observed status
type RunRecord struct {
	RunHandle
	Status RunStatus `json:"status"`
}
