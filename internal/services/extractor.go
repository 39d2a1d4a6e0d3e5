// Audio extraction pipeline built on yt-dlp via [ytdlp.Command].
//
// yt-dlp invocations block on network and transcoding work, so every call is
// dispatched through a bounded worker pool and paced by a [rate.Limiter]; the
// calling goroutine waits on completion.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/time/rate"
)

// Search prefixes understood by the extractor backend.
const (
	YouTubeSearch    = "ytsearch"
	SoundCloudSearch = "scsearch"
)

// ExtractedEntry is the subset of yt-dlp's JSON output the adapters consume.
type ExtractedEntry struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Uploader    string               `json:"uploader"`
	Channel     string               `json:"channel"`
	URL         string               `json:"url"`
	WebpageURL  string               `json:"webpage_url"`
	OriginalURL string               `json:"original_url"`
	Duration    float64              `json:"duration"`
	Genre       string               `json:"genre"`
	Thumbnail   string               `json:"thumbnail"`
	Thumbnails  []ExtractedThumbnail `json:"thumbnails"`
}

// ExtractedThumbnail is one thumbnail variant from yt-dlp output.
type ExtractedThumbnail struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// BestURL returns the most canonical link for an entry.
func (e *ExtractedEntry) BestURL() string {
	for _, u := range []string{e.WebpageURL, e.URL, e.OriginalURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

// BestThumbnail returns the highest-quality thumbnail, preferring the last of
// the variant list (yt-dlp orders small to large).
func (e *ExtractedEntry) BestThumbnail() string {
	for i := len(e.Thumbnails) - 1; i >= 0; i-- {
		if e.Thumbnails[i].URL != "" {
			return e.Thumbnails[i].URL
		}
	}
	return e.Thumbnail
}

// Extractor abstracts the yt-dlp pipeline so adapters and engines can be
// tested without invoking the binary.
type Extractor interface {
	// Search runs a "{prefix}{limit}:{query}" metadata-only search and returns
	// the flattened result entries.
	Search(ctx context.Context, prefix, query string, limit int) ([]ExtractedEntry, error)

	// Probe fetches metadata for a single URL without downloading.
	Probe(ctx context.Context, url string) (*ExtractedEntry, error)

	// DownloadAudio resolves url to its best audio stream and transcodes it to
	// {basePath}.mp3 at 320 kbps.
	DownloadAudio(ctx context.Context, url, basePath string) error
}

// AudioExtractor implements [Extractor] with the yt-dlp binary.
type AudioExtractor struct {
	slots   chan struct{}
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewAudioExtractor creates an extractor with the configured worker pool size
// and invocation pacing.
func NewAudioExtractor(cfg shared.ExtractorConfig, logger *log.Logger) *AudioExtractor {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5.0
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &AudioExtractor{
		slots:   make(chan struct{}, workers),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// acquire claims a worker slot, honoring pacing and cancellation. The caller
// must invoke the returned release func.
func (e *AudioExtractor) acquire(ctx context.Context) (func(), error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	select {
	case e.slots <- struct{}{}:
		return func() { <-e.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *AudioExtractor) Search(ctx context.Context, prefix, query string, limit int) ([]ExtractedEntry, error) {
	release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	target := fmt.Sprintf("%s%d:%s", prefix, limit, cleanExtractorQuery(query))
	e.logger.Debug("extractor search", "target", target)

	cmd := ytdlp.New().
		DumpSingleJSON().
		FlatPlaylist().
		SkipDownload().
		IgnoreErrors().
		NoWarnings()

	result, err := cmd.Run(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var payload struct {
		Entries []ExtractedEntry `json:"entries"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode search output: %w", err)
	}

	return payload.Entries, nil
}

func (e *AudioExtractor) Probe(ctx context.Context, url string) (*ExtractedEntry, error) {
	release, err := e.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	cmd := ytdlp.New().
		DumpSingleJSON().
		SkipDownload().
		NoPlaylist().
		NoWarnings()

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var entry ExtractedEntry
	if err := json.Unmarshal([]byte(result.Stdout), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode probe output: %w", err)
	}
	if entry.ID == "" {
		return nil, shared.ErrTrackNotFound
	}

	return &entry, nil
}

func (e *AudioExtractor) DownloadAudio(ctx context.Context, url, basePath string) error {
	release, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	e.logger.Info("extracting audio", "url", url, "output", basePath)

	cmd := ytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat("mp3").
		AudioQuality("320K").
		Output(basePath + ".%(ext)s").
		NoPlaylist().
		NoWarnings()

	if _, err := cmd.Run(ctx, url); err != nil {
		return fmt.Errorf("yt-dlp failed: %w", err)
	}

	return nil
}

// cleanExtractorQuery strips characters that confuse the search-prefix syntax
// and collapses whitespace.
func cleanExtractorQuery(query string) string {
	replacer := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", `"`, "", "'", "")
	return strings.Join(strings.Fields(replacer.Replace(query)), " ")
}
