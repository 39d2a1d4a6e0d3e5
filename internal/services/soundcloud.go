// SoundCloud API implementation of [Platform]
//
// Requires a client_id; without one the adapter reports itself unavailable
// and search degrades to empty results. SoundCloud reports durations in
// milliseconds and encodes artwork size in the URL path.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

const soundcloudBaseURL = "https://api-v2.soundcloud.com"

// scTrack mirrors the track object of the SoundCloud v2 API.
type scTrack struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	PermalinkURL string  `json:"permalink_url"`
	Duration     int     `json:"duration"` // milliseconds
	Genre        string  `json:"genre"`
	ArtworkURL   string  `json:"artwork_url"`
	User         *scUser `json:"user"`
}

type scUser struct {
	Username string `json:"username"`
}

// SoundCloudPlatform implements [Platform] against the SoundCloud v2 API,
// delegating downloads to the extraction pipeline.
type SoundCloudPlatform struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	extractor  Extractor
}

// NewSoundCloudPlatform creates a SoundCloud adapter. An empty clientID
// leaves the adapter constructed but unavailable.
func NewSoundCloudPlatform(clientID string, ex Extractor, timeout time.Duration) *SoundCloudPlatform {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SoundCloudPlatform{
		baseURL:    soundcloudBaseURL,
		clientID:   clientID,
		httpClient: &http.Client{Timeout: timeout},
		extractor:  ex,
	}
}

func (s *SoundCloudPlatform) Name() models.PlatformSource { return models.SourceSoundCloud }

func (s *SoundCloudPlatform) Available() bool { return s.clientID != "" }

func (s *SoundCloudPlatform) Capabilities() models.Capabilities {
	return models.CapabilitiesOf(models.SourceSoundCloud)
}

func (s *SoundCloudPlatform) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if !s.Available() {
		return nil, fmt.Errorf("%w: soundcloud client_id not configured", shared.ErrPlatformUnavailable)
	}

	query = shared.NormalizeQuery(query, 250)
	if query == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/search/tracks?q=%s&limit=%d&client_id=%s",
		s.baseURL, url.QueryEscape(query), limit, url.QueryEscape(s.clientID))

	var payload struct {
		Collection []json.RawMessage `json:"collection"`
	}
	if err := s.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(payload.Collection))
	for _, raw := range payload.Collection {
		var sc scTrack
		if err := json.Unmarshal(raw, &sc); err != nil || sc.ID == 0 || sc.PermalinkURL == "" {
			continue
		}
		tracks = append(tracks, s.parseTrack(&sc))
	}

	return tracks, nil
}

func (s *SoundCloudPlatform) GetTrack(ctx context.Context, trackID string) (*models.Track, error) {
	if !s.Available() {
		return nil, fmt.Errorf("%w: soundcloud client_id not configured", shared.ErrPlatformUnavailable)
	}

	nativeID := models.SourceSoundCloud.StripTrackID(trackID)
	if nativeID == "" {
		return nil, shared.ErrInvalidTrackID
	}

	endpoint := fmt.Sprintf("%s/tracks/%s?client_id=%s",
		s.baseURL, url.PathEscape(nativeID), url.QueryEscape(s.clientID))

	var sc scTrack
	if err := s.get(ctx, endpoint, &sc); err != nil {
		return nil, err
	}
	if sc.ID == 0 {
		return nil, shared.ErrTrackNotFound
	}

	track := s.parseTrack(&sc)
	return &track, nil
}

func (s *SoundCloudPlatform) Download(ctx context.Context, track *models.Track, outputDir string) (string, error) {
	return downloadAudio(ctx, s.extractor, track, outputDir)
}

// BPM always returns nil: SoundCloud's public API exposes no tempo data.
func (s *SoundCloudPlatform) BPM(ctx context.Context, track *models.Track) (*float64, error) {
	return nil, nil
}

func (s *SoundCloudPlatform) get(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrTrackNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: soundcloud status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (s *SoundCloudPlatform) parseTrack(sc *scTrack) models.Track {
	title := sc.Title
	if title == "" {
		title = "Unknown"
	}
	artist := "Unknown Artist"
	if sc.User != nil && sc.User.Username != "" {
		artist = sc.User.Username
	}

	return models.Track{
		ID:         models.SourceSoundCloud.TrackID(fmt.Sprintf("%d", sc.ID)),
		Title:      title,
		Artist:     artist,
		Source:     models.SourceSoundCloud,
		URL:        sc.PermalinkURL,
		Duration:   sc.Duration / 1000,
		ArtworkURL: upgradeArtwork(sc.ArtworkURL),
		Genre:      sc.Genre,
	}
}

// upgradeArtwork swaps SoundCloud's default "-large" (100x100) artwork
// variant for the 500x500 one.
func upgradeArtwork(artworkURL string) string {
	return strings.Replace(artworkURL, "-large", "-t500x500", 1)
}
