package lifecycle

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "tests/test_login.py::TestLogin::test_ok", want: "tests/test_login.py__TestLogin__test_ok"},
		{in: "Setup Test", want: "Setup Test"},
		{in: "a*b?c<d>", want: "a*b?c<d>"},
		{in: ":", want: "_"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTestName(tt.in))
		})
	}
}

func TestNewLabel(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 5, 0, time.UTC)

	label, err := NewLabel("nightly", now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^nightly-2026-10-16-09-30-05[a-zA-Z]{8}$`), label)

	other, err := NewLabel("nightly", now)
	require.NoError(t, err)
	assert.NotEqual(t, label, other)

	bare, err := NewLabel("", now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^2026-10-16-09-30-05[a-zA-Z]{8}$`), bare)
}

func TestCreateRunDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "reports")

	first, err := CreateRunDir(root, "run-a")
	require.NoError(t, err)
	second, err := CreateRunDir(root, "run-b")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.DirExists(t, first)
	assert.DirExists(t, second)

	_, err = CreateRunDir(root, "run-a")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrExist)

	_, err = CreateRunDir(root, "")
	require.Error(t, err)
}

func TestArtifactFileName(t *testing.T) {
	assert.Equal(t, "DEVICE_LOG_logcat.log", ArtifactFileName("DEVICE_LOG", "logcat", "log"))
	assert.Equal(t,
		filepath.Join("job", "suite", "a__b"),
		TestDir("job", "suite", "a::b"),
	)
}

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		name    string
		job     string
		suite   string
		test    string
		art     string
		want    string
		wantErr bool
	}{
		{name: "plain", job: "Pixel 8", suite: "Tests Suite", test: "a::b", art: "logcat", want: filepath.Join("Pixel 8", "Tests Suite", "a__b", "LOG_logcat.log")},
		{name: "parent job", job: "..", suite: "..", test: "x", art: "out", wantErr: true},
		{name: "slash in artifact name", job: "j", suite: "s", test: "t", art: "../../escape", wantErr: true},
		{name: "slash in suite", job: "j", suite: "a/b", test: "t", art: "out", wantErr: true},
		{name: "empty job", job: "", suite: "s", test: "t", art: "out", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ArtifactPath(tt.job, tt.suite, tt.test, "LOG", tt.art, "log")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
