package lifecycle

// This file contains the binary transport used to push uploads to
// pre-signed URLs and to pull artifacts down.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Transport moves file contents over plain HTTP.
type Transport struct {
	client *http.Client
}

// NewTransport returns a Transport using client, or a default client
// when client is nil. Redirects are followed.
func NewTransport(client *http.Client) *Transport {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Transport{client: client}
}

// Put streams the file at path to a pre-signed URL.
func (t *Transport) Put(ctx context.Context, target, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, f)
	if err != nil {
		return newTransportError(http.MethodPut, target, err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", contentType)

	resp, err := t.client.Do(req)
	if err != nil {
		return newTransportError(http.MethodPut, target, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Method: http.MethodPut, URL: target, StatusCode: resp.StatusCode}
	}
	return nil
}

// Download fetches source and writes it to dst, replacing any existing
// file. It returns the number of bytes written. A partially written file
// is removed.
func (t *Transport) Download(ctx context.Context, source, dst string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return 0, newTransportError(http.MethodGet, source, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, newTransportError(http.MethodGet, source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &TransportError{Method: http.MethodGet, URL: source, StatusCode: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file in %s: %w", filepath.Dir(dst), err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if err == nil {
		err = tmp.Chmod(0644)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, newTransportError(http.MethodGet, source, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return n, nil
}

// newTransportError wraps err, redacting the URL that client errors
// carry in their message.
func newTransportError(method, target string, err error) *TransportError {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = redactURL(uerr.URL)
	}
	return &TransportError{Method: method, URL: target, Err: err}
}

// redactURL drops the query string, which carries the signature of
// pre-signed URLs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
