package cli

// This file contains configuration loading: defaults, the YAML config
// file and flag/environment overrides, in that order of precedence.

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/farmrun/farmrun/cli/devicefarm"
	"github.com/farmrun/farmrun/lifecycle"
	"github.com/farmrun/farmrun/model"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile      = "farmrun.yaml"
	defaultTestType        = "APPIUM_PYTHON"
	defaultTestPackageType = "APPIUM_PYTHON_TEST_PACKAGE"
	defaultTestSpecType    = "APPIUM_PYTHON_TEST_SPEC"
	defaultMimeType        = "application/octet-stream"
	defaultReportsDir      = "reports"
)

// Config holds all settings of a run.
type Config struct {
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	ProjectARN    string `yaml:"projectArn"`
	DevicePoolARN string `yaml:"devicePoolArn"`
	TestSpecARN   string `yaml:"testSpecArn"`
	// Local test spec file, uploaded with the test package
	TestSpec        string `yaml:"testSpec"`
	TestSpecType    string `yaml:"testSpecType"`
	TestType        string `yaml:"testType"`
	TestPackage     string `yaml:"testPackage"`
	TestPackageType string `yaml:"testPackageType"`
	App             string `yaml:"app"`
	AppType         string `yaml:"appType"`
	MimeType        string `yaml:"mimeType"`
	NamePrefix      string `yaml:"namePrefix"`
	ReportsDir      string `yaml:"reportsDir"`

	Timeout            time.Duration `yaml:"timeout"`
	UploadPollInterval time.Duration `yaml:"uploadPollInterval"`
	RunPollInterval    time.Duration `yaml:"runPollInterval"`
}

func defaultConfig() *Config {
	return &Config{
		Region:             devicefarm.DefaultRegion,
		TestType:           defaultTestType,
		TestPackageType:    defaultTestPackageType,
		TestSpecType:       defaultTestSpecType,
		MimeType:           defaultMimeType,
		ReportsDir:         defaultReportsDir,
		UploadPollInterval: lifecycle.DefaultUploadPollInterval,
		RunPollInterval:    lifecycle.DefaultRunPollInterval,
	}
}

// parseConfig decodes a YAML document over the defaults.
func parseConfig(data []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// loadConfig reads the config file named by --config and applies the
// flags set on the command line or through the environment. A missing
// default config file is not an error.
func loadConfig(ctx *cli.Context) (*Config, error) {
	path := ctx.String("config")
	if path == "" {
		path = defaultConfigFile
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg, err = parseConfig(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !ctx.IsSet("config"):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	stringFields := map[string]*string{
		"region":            &cfg.Region,
		"endpoint":          &cfg.Endpoint,
		"project-arn":       &cfg.ProjectARN,
		"device-pool-arn":   &cfg.DevicePoolARN,
		"test-spec-arn":     &cfg.TestSpecARN,
		"test-spec":         &cfg.TestSpec,
		"test-spec-type":    &cfg.TestSpecType,
		"test-type":         &cfg.TestType,
		"test-package":      &cfg.TestPackage,
		"test-package-type": &cfg.TestPackageType,
		"app":               &cfg.App,
		"app-type":          &cfg.AppType,
		"mime-type":         &cfg.MimeType,
		"name-prefix":       &cfg.NamePrefix,
		"reports-dir":       &cfg.ReportsDir,
	}
	for name, field := range stringFields {
		if ctx.IsSet(name) {
			*field = ctx.String(name)
		}
	}

	durations := map[string]*time.Duration{
		"timeout":              &cfg.Timeout,
		"upload-poll-interval": &cfg.UploadPollInterval,
		"run-poll-interval":    &cfg.RunPollInterval,
	}
	for name, field := range durations {
		if ctx.IsSet(name) {
			*field = ctx.Duration(name)
		}
	}

	return cfg, nil
}

func (c *Config) requireProject() error {
	if c.ProjectARN == "" {
		return errors.New("projectArn is required (set it in the config file, --project-arn or FARMRUN_PROJECT_ARN)")
	}
	return nil
}

// Validate checks that everything a run needs is configured.
func (c *Config) Validate() error {
	if err := c.requireProject(); err != nil {
		return err
	}

	var missing []string
	for name, value := range map[string]string{
		"devicePoolArn": c.DevicePoolARN,
		"testPackage":   c.TestPackage,
		"app":           c.App,
		"appType":       c.AppType,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	if c.TestSpec != "" && c.TestSpecARN != "" {
		return errors.New("testSpec and testSpecArn are mutually exclusive")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	if c.UploadPollInterval <= 0 || c.RunPollInterval <= 0 {
		return errors.New("poll intervals must be positive")
	}

	for _, path := range []string{c.App, c.TestPackage, c.TestSpec} {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
	}
	return nil
}

// plan converts the config into a lifecycle plan for label.
func (c *Config) plan(label string) lifecycle.Plan {
	p := lifecycle.Plan{
		Label:         label,
		ProjectARN:    c.ProjectARN,
		DevicePoolARN: c.DevicePoolARN,
		TestSpecARN:   c.TestSpecARN,
		TestType:      c.TestType,
		App: model.UploadRequest{
			Path:     c.App,
			Kind:     model.UploadKindApplication,
			Type:     c.AppType,
			MimeType: c.MimeType,
		},
		TestPackage: model.UploadRequest{
			Path:     c.TestPackage,
			Kind:     model.UploadKindTestPackage,
			Type:     c.TestPackageType,
			MimeType: c.MimeType,
		},
		ReportsDir: c.ReportsDir,
		Timeout:    c.Timeout,
	}
	if c.TestSpec != "" {
		p.TestSpec = &model.UploadRequest{
			Path:     c.TestSpec,
			Kind:     model.UploadKindTestSpec,
			Type:     c.TestSpecType,
			MimeType: c.MimeType,
		}
	}
	return p
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML config file",
		Value:   defaultConfigFile,
		EnvVars: []string{"FARMRUN_CONFIG"},
	}
}

func reportsDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "reports-dir",
		Usage:   "Directory run reports are written to (default: reports)",
		EnvVars: []string{"FARMRUN_REPORTS_DIR"},
	}
}

// commonFlags are shared by all commands talking to the service.
// Defaults live in defaultConfig so the config file is not overridden.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:    "region",
			Usage:   "Service region (default: us-west-2)",
			EnvVars: []string{"FARMRUN_REGION"},
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "Override the service endpoint URL",
			EnvVars: []string{"FARMRUN_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "project-arn",
			Usage:   "ARN of the project",
			EnvVars: []string{"FARMRUN_PROJECT_ARN"},
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		reportsDirFlag(),
		&cli.StringFlag{
			Name:    "device-pool-arn",
			Usage:   "ARN of the device pool to run on",
			EnvVars: []string{"FARMRUN_DEVICE_POOL_ARN"},
		},
		&cli.StringFlag{
			Name:    "app",
			Usage:   "Path to the application binary",
			EnvVars: []string{"FARMRUN_APP"},
		},
		&cli.StringFlag{
			Name:    "app-type",
			Usage:   "Upload type of the application (e.g. ANDROID_APP, IOS_APP)",
			EnvVars: []string{"FARMRUN_APP_TYPE"},
		},
		&cli.StringFlag{
			Name:    "test-package",
			Usage:   "Path to the test package",
			EnvVars: []string{"FARMRUN_TEST_PACKAGE"},
		},
		&cli.StringFlag{
			Name:    "test-package-type",
			Usage:   "Upload type of the test package (default: APPIUM_PYTHON_TEST_PACKAGE)",
			EnvVars: []string{"FARMRUN_TEST_PACKAGE_TYPE"},
		},
		&cli.StringFlag{
			Name:    "test-type",
			Usage:   "Test type of the run (default: APPIUM_PYTHON)",
			EnvVars: []string{"FARMRUN_TEST_TYPE"},
		},
		&cli.StringFlag{
			Name:    "test-spec-arn",
			Usage:   "ARN of an already uploaded test spec",
			EnvVars: []string{"FARMRUN_TEST_SPEC_ARN"},
		},
		&cli.StringFlag{
			Name:    "test-spec",
			Usage:   "Path to a test spec to upload with the test package",
			EnvVars: []string{"FARMRUN_TEST_SPEC"},
		},
		&cli.StringFlag{
			Name:    "test-spec-type",
			Usage:   "Upload type of the test spec (default: APPIUM_PYTHON_TEST_SPEC)",
			EnvVars: []string{"FARMRUN_TEST_SPEC_TYPE"},
		},
		&cli.StringFlag{
			Name:    "mime-type",
			Usage:   "Content type used for uploads (default: application/octet-stream)",
			EnvVars: []string{"FARMRUN_MIME_TYPE"},
		},
		&cli.StringFlag{
			Name:    "name-prefix",
			Usage:   "Prefix of the run label",
			EnvVars: []string{"FARMRUN_NAME_PREFIX"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Give up on uploading, scheduling and polling after this long (0 = no limit)",
			EnvVars: []string{"FARMRUN_TIMEOUT"},
		},
		&cli.DurationFlag{
			Name:    "upload-poll-interval",
			Usage:   "Interval between upload status checks (default: 5s)",
			EnvVars: []string{"FARMRUN_UPLOAD_POLL_INTERVAL"},
		},
		&cli.DurationFlag{
			Name:    "run-poll-interval",
			Usage:   "Interval between run status checks (default: 10s)",
			EnvVars: []string{"FARMRUN_RUN_POLL_INTERVAL"},
		},
	}
}
