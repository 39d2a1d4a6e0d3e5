// YouTube implementation of [Platform]
//
// Search, detail, and download all ride on the extraction pipeline, so no API
// key is required and the adapter is always available. Video titles encode
// the artist in freeform ways ("Artist - Title", "Title (by Artist)"); the
// parser recovers both parts and falls back to the uploader channel name.
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

// Video ids are 11 characters from the base64-url alphabet.
var youtubeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// watchURLPatterns match the id inside the common YouTube URL forms.
var watchURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?(?:.*&)?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`music\.youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
}

// titleNoise lists suffixes stripped from video titles before the
// artist/title split.
var titleNoise = []string{
	"(Official Video)", "(Official Music Video)", "(Official Audio)",
	"(Lyric Video)", "(Lyrics)", "(Audio)", "(Visualizer)",
	"[Official Video]", "[Official Music Video]", "[Official Audio]",
	"(HD)", "(HQ)", "(4K)", "(Official)",
	"| Official Video", "| Official Audio",
}

var titleSeparators = []string{" - ", " — ", " | ", " – "}

var byArtistPattern = regexp.MustCompile(`(?i)^(.+?)\s*[([](?:by|feat\.?|ft\.?)\s*(.+?)[)\]]`)

// YouTubePlatform implements [Platform] on top of the extraction pipeline.
type YouTubePlatform struct {
	extractor Extractor
}

// NewYouTubePlatform creates a YouTube adapter.
func NewYouTubePlatform(ex Extractor) *YouTubePlatform {
	return &YouTubePlatform{extractor: ex}
}

func (y *YouTubePlatform) Name() models.PlatformSource { return models.SourceYouTube }

func (y *YouTubePlatform) Available() bool { return true }

func (y *YouTubePlatform) Capabilities() models.Capabilities {
	return models.CapabilitiesOf(models.SourceYouTube)
}

func (y *YouTubePlatform) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	query = shared.NormalizeQuery(query, 500)
	if query == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	entries, err := y.extractor.Search(ctx, YouTubeSearch, query, limit)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(entries))
	for i := range entries {
		if track, ok := y.parseEntry(&entries[i]); ok {
			tracks = append(tracks, track)
		}
	}

	return tracks, nil
}

func (y *YouTubePlatform) GetTrack(ctx context.Context, trackID string) (*models.Track, error) {
	nativeID := models.SourceYouTube.StripTrackID(strings.TrimSpace(trackID))
	if strings.HasPrefix(nativeID, "http") {
		extracted, ok := extractVideoID(nativeID)
		if !ok {
			return nil, fmt.Errorf("%w: no video id in %q", shared.ErrInvalidTrackID, nativeID)
		}
		nativeID = extracted
	}
	if !youtubeIDPattern.MatchString(nativeID) {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidTrackID, nativeID)
	}

	entry, err := y.extractor.Probe(ctx, watchURL(nativeID))
	if err != nil {
		return nil, err
	}

	track, ok := y.parseEntry(entry)
	if !ok {
		return nil, shared.ErrTrackNotFound
	}

	return &track, nil
}

func (y *YouTubePlatform) Download(ctx context.Context, track *models.Track, outputDir string) (string, error) {
	return downloadAudio(ctx, y.extractor, track, outputDir)
}

// BPM always returns nil: YouTube exposes no tempo data.
func (y *YouTubePlatform) BPM(ctx context.Context, track *models.Track) (*float64, error) {
	return nil, nil
}

func (y *YouTubePlatform) parseEntry(entry *ExtractedEntry) (models.Track, bool) {
	if entry.ID == "" || entry.Title == "" {
		return models.Track{}, false
	}
	if entry.Title == "[Deleted video]" || entry.Title == "[Private video]" {
		return models.Track{}, false
	}

	uploader := entry.Uploader
	if uploader == "" {
		uploader = entry.Channel
	}
	if uploader == "" {
		uploader = "Unknown Artist"
	}
	artist, title := parseArtistTitle(entry.Title, uploader)

	link := entry.BestURL()
	if link == "" {
		link = watchURL(entry.ID)
	}

	return models.Track{
		ID:         models.SourceYouTube.TrackID(entry.ID),
		Title:      title,
		Artist:     artist,
		Source:     models.SourceYouTube,
		URL:        link,
		Duration:   int(entry.Duration),
		ArtworkURL: entry.BestThumbnail(),
	}, true
}

// parseArtistTitle splits a video title into artist and title. A separator of
// the form "X - Y" wins over the uploader fallback; "Title (by Artist)" is
// also recognized.
func parseArtistTitle(videoTitle, uploader string) (artist, title string) {
	cleaned := videoTitle
	for _, noise := range titleNoise {
		cleaned = strings.ReplaceAll(cleaned, noise, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	for _, sep := range titleSeparators {
		if left, right, ok := strings.Cut(cleaned, sep); ok {
			left, right = strings.TrimSpace(left), strings.TrimSpace(right)
			if left != "" && right != "" {
				return left, right
			}
		}
	}

	if m := byArtistPattern.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
	}

	return uploader, cleaned
}

func extractVideoID(rawURL string) (string, bool) {
	for _, pattern := range watchURLPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
