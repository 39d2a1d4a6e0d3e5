// Deezer API implementation of [Platform]
//
// Deezer's search and track endpoints are public, so the adapter is always
// available. Deezer streams are not downloadable; Download resolves the track
// through a video-platform search instead.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

const deezerBaseURL = "https://api.deezer.com"

// deezerTrack mirrors the track object of Deezer's REST API. Durations are
// already in seconds; bpm appears on the detail endpoint only.
type deezerTrack struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Link     string       `json:"link"`
	Duration int          `json:"duration"`
	BPM      float64      `json:"bpm"`
	Artist   deezerArtist `json:"artist"`
	Album    *deezerAlbum `json:"album"`
}

type deezerArtist struct {
	Name string `json:"name"`
}

type deezerAlbum struct {
	CoverXL  string `json:"cover_xl"`
	CoverBig string `json:"cover_big"`
}

// DeezerPlatform implements [Platform] against the public Deezer REST API,
// delegating downloads to the extraction pipeline.
type DeezerPlatform struct {
	baseURL    string
	httpClient *http.Client
	extractor  Extractor
}

// NewDeezerPlatform creates a Deezer adapter with a fixed per-call timeout.
func NewDeezerPlatform(ex Extractor, timeout time.Duration) *DeezerPlatform {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DeezerPlatform{
		baseURL:    deezerBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		extractor:  ex,
	}
}

func (d *DeezerPlatform) Name() models.PlatformSource { return models.SourceDeezer }

func (d *DeezerPlatform) Available() bool { return true }

func (d *DeezerPlatform) Capabilities() models.Capabilities {
	return models.CapabilitiesOf(models.SourceDeezer)
}

func (d *DeezerPlatform) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	query = shared.NormalizeQuery(query, 250)
	if query == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&limit=%d", d.baseURL, url.QueryEscape(query), limit)

	var payload struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := d.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(payload.Data))
	for _, raw := range payload.Data {
		var dt deezerTrack
		if err := json.Unmarshal(raw, &dt); err != nil || dt.ID == 0 {
			continue
		}
		tracks = append(tracks, d.parseTrack(&dt))
	}

	return tracks, nil
}

func (d *DeezerPlatform) GetTrack(ctx context.Context, trackID string) (*models.Track, error) {
	nativeID := models.SourceDeezer.StripTrackID(trackID)
	if nativeID == "" {
		return nil, shared.ErrInvalidTrackID
	}

	endpoint := fmt.Sprintf("%s/track/%s", d.baseURL, url.PathEscape(nativeID))

	var dt deezerTrack
	if err := d.get(ctx, endpoint, &dt); err != nil {
		return nil, err
	}
	if dt.ID == 0 {
		return nil, shared.ErrTrackNotFound
	}

	track := d.parseTrack(&dt)
	if dt.BPM > 0 {
		bpm := dt.BPM
		track.BPM = &bpm
	}

	return &track, nil
}

// Download resolves the track through a video-platform search because the
// Deezer stream itself is not downloadable.
func (d *DeezerPlatform) Download(ctx context.Context, track *models.Track, outputDir string) (string, error) {
	search := &models.Track{
		Title:  track.Title,
		Artist: track.Artist,
		URL:    fmt.Sprintf("%s1:%s %s", YouTubeSearch, track.Artist, track.Title),
	}
	return downloadAudio(ctx, d.extractor, search, outputDir)
}

// BPM reads the bpm field from track detail; values of zero or less are
// treated as absent.
func (d *DeezerPlatform) BPM(ctx context.Context, track *models.Track) (*float64, error) {
	detail, err := d.GetTrack(ctx, track.ID)
	if err != nil {
		return nil, err
	}
	return detail.BPM, nil
}

func (d *DeezerPlatform) get(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrTrackNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: deezer status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (d *DeezerPlatform) parseTrack(dt *deezerTrack) models.Track {
	title := dt.Title
	if title == "" {
		title = "Unknown"
	}
	artist := dt.Artist.Name
	if artist == "" {
		artist = "Unknown Artist"
	}

	artwork := ""
	if dt.Album != nil {
		artwork = dt.Album.CoverXL
		if artwork == "" {
			artwork = dt.Album.CoverBig
		}
	}

	return models.Track{
		ID:         models.SourceDeezer.TrackID(fmt.Sprintf("%d", dt.ID)),
		Title:      title,
		Artist:     artist,
		Source:     models.SourceDeezer,
		URL:        dt.Link,
		Duration:   dt.Duration,
		ArtworkURL: artwork,
	}
}
