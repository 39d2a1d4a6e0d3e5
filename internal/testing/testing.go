// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/services"
)

// MockPlatform is a configurable test double for [services.Platform]
type MockPlatform struct {
	Source        models.PlatformSource
	Up            bool
	Caps          models.Capabilities
	SearchFn      func(ctx context.Context, query string, limit int) ([]models.Track, error)
	GetTrackFn    func(ctx context.Context, trackID string) (*models.Track, error)
	DownloadFn    func(ctx context.Context, track *models.Track, outputDir string) (string, error)
	BPMFn         func(ctx context.Context, track *models.Track) (*float64, error)
	SearchCalls   int
	DownloadCalls int
}

func (m *MockPlatform) Name() models.PlatformSource { return m.Source }

func (m *MockPlatform) Available() bool { return m.Up }

func (m *MockPlatform) Capabilities() models.Capabilities { return m.Caps }

func (m *MockPlatform) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	m.SearchCalls++
	if m.SearchFn != nil {
		return m.SearchFn(ctx, query, limit)
	}
	return []models.Track{}, nil
}

func (m *MockPlatform) GetTrack(ctx context.Context, trackID string) (*models.Track, error) {
	if m.GetTrackFn != nil {
		return m.GetTrackFn(ctx, trackID)
	}
	return nil, nil
}

func (m *MockPlatform) Download(ctx context.Context, track *models.Track, outputDir string) (string, error) {
	m.DownloadCalls++
	if m.DownloadFn != nil {
		return m.DownloadFn(ctx, track, outputDir)
	}
	return "", nil
}

func (m *MockPlatform) BPM(ctx context.Context, track *models.Track) (*float64, error) {
	if m.BPMFn != nil {
		return m.BPMFn(ctx, track)
	}
	return nil, nil
}

// MockExtractor is a test double for [services.Extractor]
type MockExtractor struct {
	SearchFn   func(ctx context.Context, prefix, query string, limit int) ([]services.ExtractedEntry, error)
	ProbeFn    func(ctx context.Context, url string) (*services.ExtractedEntry, error)
	DownloadFn func(ctx context.Context, url, basePath string) error
}

func (m *MockExtractor) Search(ctx context.Context, prefix, query string, limit int) ([]services.ExtractedEntry, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, prefix, query, limit)
	}
	return nil, nil
}

func (m *MockExtractor) Probe(ctx context.Context, url string) (*services.ExtractedEntry, error) {
	if m.ProbeFn != nil {
		return m.ProbeFn(ctx, url)
	}
	return nil, errors.New("probe not configured")
}

func (m *MockExtractor) DownloadAudio(ctx context.Context, url, basePath string) error {
	if m.DownloadFn != nil {
		return m.DownloadFn(ctx, url, basePath)
	}
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
