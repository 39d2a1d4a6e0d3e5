// package services implements the platform adapters for Deezer, SoundCloud,
// Spotify and YouTube behind the common [Platform] contract
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

// Platform defines the capability-tagged contract every platform adapter
// implements. Adapters are read-only after construction: credentials are
// fixed at startup and each call builds fresh [models.Track] values.
//
// Adapters surface failures as errors; the engines in internal/tasks convert
// them to empty results or structured error responses and log them once.
type Platform interface {
	// Name returns the platform tag this adapter represents.
	Name() models.PlatformSource

	// Available reports whether the credentials this adapter needs are
	// configured. Deezer and YouTube need none and are always available.
	Available() bool

	// Capabilities returns the platform's fixed capability flags.
	Capabilities() models.Capabilities

	// Search queries the upstream search endpoint and parses each hit into a
	// Track. Hits that fail to parse are dropped; the rest of the batch is
	// unaffected.
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)

	// GetTrack fetches single-item detail by platform-native or prefixed id.
	// Returns [shared.ErrTrackNotFound] when the upstream has no such track.
	GetTrack(ctx context.Context, trackID string) (*models.Track, error)

	// Download fetches the track's audio into outputDir as a 320 kbps MP3 and
	// returns the file path. Adapters without download support return
	// [shared.ErrUnsupportedOperation].
	Download(ctx context.Context, track *models.Track, outputDir string) (string, error)

	// BPM returns the track's tempo, or nil when the platform exposes none.
	BPM(ctx context.Context, track *models.Track) (*float64, error)
}

// outputBase computes the deterministic extension-less output path for a
// track: {dir}/{sanitized "artist - title"}.
func outputBase(dir string, track *models.Track) string {
	return filepath.Join(dir, shared.SanitizeFilename(track.Artist+" - "+track.Title))
}

// downloadAudio runs the extraction pipeline for a track URL (or search
// pseudo-URL) and verifies the MP3 landed on disk. An already-present file
// short-circuits the pipeline.
func downloadAudio(ctx context.Context, ex Extractor, track *models.Track, outputDir string) (string, error) {
	if track.URL == "" {
		return "", shared.ErrMissingURL
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	base := outputBase(outputDir, track)
	finalPath := base + ".mp3"
	if _, err := os.Stat(finalPath); err == nil {
		return finalPath, nil
	}

	if err := ex.DownloadAudio(ctx, track.URL, base); err != nil {
		return "", fmt.Errorf("extraction failed for %q: %w", track.URL, err)
	}

	if _, err := os.Stat(finalPath); err != nil {
		return "", fmt.Errorf("%w: %s", shared.ErrFileNotCreated, finalPath)
	}

	return finalPath, nil
}
