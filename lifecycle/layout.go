package lifecycle

// This file contains the naming rules of the local report tree:
// {root}/{label}/{job}/{suite}/{test}/{type}_{name}.{extension}

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const labelLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewLabel returns a unique run label: prefix, a timestamp and eight
// random letters, e.g. "nightly-2026-10-16-09-30-00xKqWbTzA".
func NewLabel(prefix string, now time.Time) (string, error) {
	suffix := make([]byte, 8)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(labelLetters))))
		if err != nil {
			return "", fmt.Errorf("failed to generate run label: %w", err)
		}
		suffix[i] = labelLetters[n.Int64()]
	}

	label := now.Format("2006-01-02-15-04-05") + string(suffix)
	if prefix != "" {
		label = prefix + "-" + label
	}
	return label, nil
}

// SanitizeTestName replaces ':' which is not allowed in path components
// on Windows and macOS. Nothing else is altered.
func SanitizeTestName(name string) string {
	return strings.ReplaceAll(name, ":", "_")
}

// CreateRunDir creates the report directory of a run below root. It
// fails if the directory already exists so two runs never share a tree.
func CreateRunDir(root, label string) (string, error) {
	if label == "" {
		return "", fmt.Errorf("empty run label")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	runDir := filepath.Join(root, label)
	if err := os.Mkdir(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return runDir, nil
}

// TestDir returns the directory holding a test's artifacts, relative to
// the run directory.
func TestDir(job, suite, test string) string {
	return filepath.Join(job, suite, SanitizeTestName(test))
}

// ArtifactPath returns the file of an artifact relative to the run
// directory. Names come from the service, so each must be a single path
// element; anything that would leave its test directory is rejected.
func ArtifactPath(job, suite, test, kind, name, extension string) (string, error) {
	file := ArtifactFileName(kind, name, extension)
	for _, elem := range []string{job, suite, SanitizeTestName(test), file} {
		if elem == "" || elem == "." || elem == ".." || strings.ContainsAny(elem, `/\`) {
			return "", fmt.Errorf("unsafe path element %q", elem)
		}
	}
	path := filepath.Join(TestDir(job, suite, test), file)
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("unsafe artifact path %q", path)
	}
	return path, nil
}

// ArtifactFileName returns the local file name of an artifact.
func ArtifactFileName(kind, name, extension string) string {
	return kind + "_" + name + "." + extension
}
