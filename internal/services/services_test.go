package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

// stubExtractor is an in-package [Extractor] double.
type stubExtractor struct {
	searchFn   func(ctx context.Context, prefix, query string, limit int) ([]ExtractedEntry, error)
	probeFn    func(ctx context.Context, url string) (*ExtractedEntry, error)
	downloadFn func(ctx context.Context, url, basePath string) error
	downloads  []string
}

func (s *stubExtractor) Search(ctx context.Context, prefix, query string, limit int) ([]ExtractedEntry, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, prefix, query, limit)
	}
	return nil, nil
}

func (s *stubExtractor) Probe(ctx context.Context, url string) (*ExtractedEntry, error) {
	if s.probeFn != nil {
		return s.probeFn(ctx, url)
	}
	return nil, errors.New("probe not configured")
}

func (s *stubExtractor) DownloadAudio(ctx context.Context, url, basePath string) error {
	s.downloads = append(s.downloads, url)
	if s.downloadFn != nil {
		return s.downloadFn(ctx, url, basePath)
	}
	return nil
}

// writeMP3 makes the stub create the expected output file, mimicking a
// successful transcode.
func writeMP3(t *testing.T) func(ctx context.Context, url, basePath string) error {
	t.Helper()
	return func(ctx context.Context, url, basePath string) error {
		return os.WriteFile(basePath+".mp3", []byte("audio"), 0644)
	}
}

func TestOutputBase(t *testing.T) {
	track := &models.Track{Artist: "AC/DC", Title: "T.N.T?"}
	got := outputBase("/tmp/crates", track)
	want := filepath.Join("/tmp/crates", "AC_DC - T.N.T_")
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDownloadAudio(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a URL", func(t *testing.T) {
		ex := &stubExtractor{}
		track := &models.Track{Artist: "Artist", Title: "Song"}
		if _, err := downloadAudio(ctx, ex, track, t.TempDir()); !errors.Is(err, shared.ErrMissingURL) {
			t.Errorf("expected ErrMissingURL, got %v", err)
		}
	})

	t.Run("downloads and returns the final path", func(t *testing.T) {
		dir := t.TempDir()
		ex := &stubExtractor{downloadFn: writeMP3(t)}
		track := &models.Track{Artist: "Artist", Title: "Song", URL: "https://example.com/watch"}

		path, err := downloadAudio(ctx, ex, track, dir)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if path != filepath.Join(dir, "Artist - Song.mp3") {
			t.Errorf("unexpected path %q", path)
		}
		if len(ex.downloads) != 1 {
			t.Errorf("expected 1 extractor call, got %d", len(ex.downloads))
		}
	})

	t.Run("creates the output directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "crates")
		ex := &stubExtractor{downloadFn: writeMP3(t)}
		track := &models.Track{Artist: "Artist", Title: "Song", URL: "https://example.com/watch"}

		if _, err := downloadAudio(ctx, ex, track, dir); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("short-circuits when file exists", func(t *testing.T) {
		dir := t.TempDir()
		existing := filepath.Join(dir, "Artist - Song.mp3")
		if err := os.WriteFile(existing, []byte("cached"), 0644); err != nil {
			t.Fatal(err)
		}

		ex := &stubExtractor{}
		track := &models.Track{Artist: "Artist", Title: "Song", URL: "https://example.com/watch"}

		path, err := downloadAudio(ctx, ex, track, dir)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if path != existing {
			t.Errorf("expected existing path, got %q", path)
		}
		if len(ex.downloads) != 0 {
			t.Error("extractor should not run for an existing file")
		}
	})

	t.Run("reports a missing output file", func(t *testing.T) {
		ex := &stubExtractor{} // succeeds but writes nothing
		track := &models.Track{Artist: "Artist", Title: "Song", URL: "https://example.com/watch"}

		if _, err := downloadAudio(ctx, ex, track, t.TempDir()); !errors.Is(err, shared.ErrFileNotCreated) {
			t.Errorf("expected ErrFileNotCreated, got %v", err)
		}
	})

	t.Run("propagates extraction failure", func(t *testing.T) {
		ex := &stubExtractor{downloadFn: func(ctx context.Context, url, basePath string) error {
			return errors.New("network down")
		}}
		track := &models.Track{Artist: "Artist", Title: "Song", URL: "https://example.com/watch"}

		if _, err := downloadAudio(ctx, ex, track, t.TempDir()); err == nil {
			t.Error("expected error")
		}
	})
}
