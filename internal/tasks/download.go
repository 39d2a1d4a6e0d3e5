package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
)

// DownloadEngine resolves track downloads. Platforms that cannot serve audio
// directly get routed through a YouTube search for the same artist and title.
type DownloadEngine struct {
	search    *SearchEngine
	outputDir string
	logger    *log.Logger
}

// NewDownloadEngine wires a download engine over the search engine's adapter
// registry. Files land under outputDir.
func NewDownloadEngine(search *SearchEngine, outputDir string, logger *log.Logger) *DownloadEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DownloadEngine{search: search, outputDir: outputDir, logger: logger}
}

// OutputDir returns the directory downloads are written to.
func (e *DownloadEngine) OutputDir() string { return e.outputDir }

// DownloadTrack fetches the track's metadata from its owning platform and
// downloads the audio. When the platform does not support direct downloads
// (Spotify), the engine falls back to a YouTube search for
// "{artist} {title}" and downloads the top hit, while the response still
// carries the original track so callers keep its id and BPM.
//
// The returned error mirrors the response's Error field so callers can
// classify failures with [errors.Is].
func (e *DownloadEngine) DownloadTrack(ctx context.Context, source models.PlatformSource, trackID string) (*models.DownloadResponse, error) {
	platform, err := e.search.Platform(source)
	if err != nil {
		return errorResponse(nil, err), err
	}
	if !platform.Available() {
		err = fmt.Errorf("%w: %s", shared.ErrPlatformUnavailable, source)
		return errorResponse(nil, err), err
	}

	track, err := platform.GetTrack(ctx, trackID)
	if err != nil {
		err = fmt.Errorf("track not found: %w", err)
		return errorResponse(nil, err), err
	}

	path, err := e.download(ctx, platform, track)
	if err != nil {
		return errorResponse(track, err), err
	}

	e.logger.Info("download complete", "track", track.ID, "path", path)
	return &models.DownloadResponse{Status: models.StatusReady, Filepath: path, Track: track}, nil
}

func (e *DownloadEngine) download(ctx context.Context, platform services.Platform, track *models.Track) (string, error) {
	if platform.Capabilities().Download {
		return platform.Download(ctx, track.Copy(), e.outputDir)
	}
	return e.downloadViaYouTube(ctx, track)
}

// downloadViaYouTube hands a synthetic track to the YouTube adapter. The
// pseudo URL "ytsearch1:{artist} {title}" makes the extractor resolve the
// top search hit instead of a fixed video.
func (e *DownloadEngine) downloadViaYouTube(ctx context.Context, track *models.Track) (string, error) {
	youtube, err := e.search.Platform(models.SourceYouTube)
	if err != nil {
		return "", fmt.Errorf("no fallback platform for %s: %w", track.Source, err)
	}

	e.logger.Info("falling back to youtube", "track", track.ID, "source", track.Source)

	surrogate := track.Copy()
	surrogate.Source = models.SourceYouTube
	surrogate.URL = fmt.Sprintf("ytsearch1:%s %s", track.Artist, track.Title)

	path, err := youtube.Download(ctx, surrogate, e.outputDir)
	if err != nil {
		if errors.Is(err, shared.ErrFileNotCreated) {
			return "", fmt.Errorf("file not created: %w", err)
		}
		return "", err
	}
	return path, nil
}

func errorResponse(track *models.Track, err error) *models.DownloadResponse {
	return &models.DownloadResponse{Status: models.StatusError, Error: err.Error(), Track: track}
}
