package lifecycle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/farmrun/farmrun/model"
	"github.com/rs/zerolog"
)

// fakeService is an in-memory Service. Upload and run statuses are
// replayed from scripts, one entry per Get call; the last entry repeats.
type fakeService struct {
	mu sync.Mutex

	baseURL       string
	uploadScripts map[string][]model.Upload
	runScript     []model.RunStatus
	scheduleErr   error
	listJobsErr   error
	listSuitesErr error
	listTestsErr  error

	// keyed by test ARN
	listArtifactsErr map[string]error

	jobs      map[string][]model.Node
	suites    map[string][]model.Node
	tests     map[string][]model.Node
	artifacts map[string][]model.RemoteArtifact

	created    []string
	getUploads int
	scheduled  []ScheduleRequest
	getRuns    int
	stopped    []string
}

func newFakeService(baseURL string) *fakeService {
	return &fakeService{
		baseURL:       baseURL,
		uploadScripts: map[string][]model.Upload{},
		jobs:          map[string][]model.Node{},
		suites:        map[string][]model.Node{},
		tests:         map[string][]model.Node{},
		artifacts:     map[string][]model.RemoteArtifact{},
	}
}

func (f *fakeService) CreateUpload(ctx context.Context, projectARN, name, uploadType, contentType string) (model.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, name)
	arn := fmt.Sprintf("arn:upload:%d", len(f.created))
	return model.Upload{
		ARN:    arn,
		Name:   name,
		Type:   uploadType,
		URL:    f.baseURL + "/put/" + arn,
		Status: model.UploadStatusInitialized,
	}, nil
}

func (f *fakeService) GetUpload(ctx context.Context, arn string) (model.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getUploads++
	script := f.uploadScripts[arn]
	if len(script) == 0 {
		return model.Upload{ARN: arn, Status: model.UploadStatusSucceeded}, nil
	}
	next := script[0]
	if len(script) > 1 {
		f.uploadScripts[arn] = script[1:]
	}
	next.ARN = arn
	return next, nil
}

func (f *fakeService) ScheduleRun(ctx context.Context, req ScheduleRequest) (model.RunHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, req)
	if f.scheduleErr != nil {
		return model.RunHandle{}, f.scheduleErr
	}
	return model.RunHandle{ARN: "arn:run:1", Name: req.Name, Started: time.Now()}, nil
}

func (f *fakeService) GetRun(ctx context.Context, arn string) (model.RunStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return model.RunStatus{}, err
	}
	f.getRuns++
	if len(f.runScript) == 0 {
		return model.RunStatus{State: model.RunStateCompleted, Result: model.RunResultPassed}, nil
	}
	next := f.runScript[0]
	if len(f.runScript) > 1 {
		f.runScript = f.runScript[1:]
	}
	return next, nil
}

func (f *fakeService) StopRun(ctx context.Context, arn string) (model.RunStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, arn)
	return model.RunStatus{State: "STOPPING", Result: model.RunResultPending}, nil
}

func (f *fakeService) ListJobs(ctx context.Context, runARN string) ([]model.Node, error) {
	if f.listJobsErr != nil {
		return nil, f.listJobsErr
	}
	return f.jobs[runARN], nil
}

func (f *fakeService) ListSuites(ctx context.Context, jobARN string) ([]model.Node, error) {
	if f.listSuitesErr != nil {
		return nil, f.listSuitesErr
	}
	return f.suites[jobARN], nil
}

func (f *fakeService) ListTests(ctx context.Context, suiteARN string) ([]model.Node, error) {
	if f.listTestsErr != nil {
		return nil, f.listTestsErr
	}
	return f.tests[suiteARN], nil
}

func (f *fakeService) ListArtifacts(ctx context.Context, testARN string, category model.ArtifactCategory) ([]model.RemoteArtifact, error) {
	if err := f.listArtifactsErr[testARN]; err != nil {
		return nil, err
	}
	return f.artifacts[testARN+"/"+string(category)], nil
}

// addArtifact registers an artifact served by the fake's HTTP server at
// /files/<name>.
func (f *fakeService) addArtifact(testARN string, category model.ArtifactCategory, typ, name, ext string) {
	key := testARN + "/" + string(category)
	f.artifacts[key] = append(f.artifacts[key], model.RemoteArtifact{
		ARN:       testARN + "/" + name,
		Name:      name,
		Type:      typ,
		Extension: ext,
		URL:       f.baseURL + "/files/" + name,
	})
}

// countingWait records pauses instead of sleeping.
type countingWait struct {
	calls     int
	durations []time.Duration
}

func (w *countingWait) wait(ctx context.Context, d time.Duration) error {
	w.calls++
	w.durations = append(w.durations, d)
	return ctx.Err()
}

// fileServer serves PUT uploads (recording their bodies) and artifact
// downloads. Artifacts named "missing" return 404.
type fileServer struct {
	mu  sync.Mutex
	put map[string][]byte
}

func newFileServer(t *testing.T) (*fileServer, *httptest.Server) {
	t.Helper()
	fs := &fileServer{put: map[string][]byte{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/put/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		buf, err := io.ReadAll(r.Body)
		if err != nil || int64(len(buf)) != r.ContentLength {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fs.mu.Lock()
		fs.put[r.URL.Path] = buf
		fs.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/files/"):]
		if name == "missing" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/content/"+name, http.StatusFound)
	})
	mux.HandleFunc("/content/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "content of %s", r.URL.Path[len("/content/"):])
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fs, srv
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
