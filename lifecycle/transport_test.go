package lifecycle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_PutSendsContentType(t *testing.T) {
	var gotType string
	var gotLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotLength = r.ContentLength
	}))
	defer srv.Close()

	tr := NewTransport(srv.Client())
	err := tr.Put(context.Background(), srv.URL+"/upload?X-Amz-Signature=secret", writeFile(t, "app.ipa", "12345"), "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", gotType)
	assert.Equal(t, int64(5), gotLength)
}

func TestTransport_ErrorRedactsSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tr := NewTransport(srv.Client())
	err := tr.Put(context.Background(), srv.URL+"/upload?X-Amz-Signature=secret", writeFile(t, "app.ipa", "1"), "application/octet-stream")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusForbidden, transportErr.StatusCode)
	assert.NotContains(t, err.Error(), "secret")
}

func TestTransport_DownloadFailureLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dst := filepath.Join(dir, "LOG_device.log")
	_, err := NewTransport(srv.Client()).Download(context.Background(), srv.URL, dst)
	require.Error(t, err)
	assert.NoFileExists(t, dst)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTransport_ConnectionErrorRedactsSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL + "/upload?X-Amz-Signature=secret"
	client := srv.Client()
	srv.Close()

	tr := NewTransport(client)

	err := tr.Put(context.Background(), target, writeFile(t, "app.ipa", "1"), "application/octet-stream")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.NotContains(t, err.Error(), "secret")

	_, err = tr.Download(context.Background(), target, filepath.Join(t.TempDir(), "LOG_device.log"))
	require.ErrorAs(t, err, &transportErr)
	assert.NotContains(t, err.Error(), "secret")
}
