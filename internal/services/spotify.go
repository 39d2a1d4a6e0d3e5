// Spotify Web API implementation of [Platform]
//
// Uses the OAuth2 client-credentials flow via [clientcredentials.Config]; the
// token source refreshes expired tokens transparently. Spotify has no
// licensed direct-download path, so Download always reports an unsupported
// operation and callers fall back to the video-platform pipeline.
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify track ids are 22-character base62 strings.
	spotifyIDLength = 22
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// SpotifyAudioFeatures represents the audio-features object; only tempo is
// consumed here.
type SpotifyAudioFeatures struct {
	ID    string  `json:"id"`
	Tempo float64 `json:"tempo"`
}

// SpotifyPlatform implements [Platform] against the Spotify Web API.
type SpotifyPlatform struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyPlatform creates a Spotify adapter from client credentials.
// Missing credentials leave the adapter constructed but unavailable.
func NewSpotifyPlatform(clientID, clientSecret string, timeout time.Duration) *SpotifyPlatform {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	p := &SpotifyPlatform{baseURL: spotifyBaseURL}
	if clientID == "" || clientSecret == "" {
		return p
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}
	p.httpClient = conf.Client(context.Background())
	p.httpClient.Timeout = timeout

	return p
}

func (s *SpotifyPlatform) Name() models.PlatformSource { return models.SourceSpotify }

func (s *SpotifyPlatform) Available() bool { return s.httpClient != nil }

func (s *SpotifyPlatform) Capabilities() models.Capabilities {
	return models.CapabilitiesOf(models.SourceSpotify)
}

func (s *SpotifyPlatform) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if !s.Available() {
		return nil, fmt.Errorf("%w: spotify credentials not configured", shared.ErrPlatformUnavailable)
	}

	query = shared.NormalizeQuery(query, 250)
	if query == "" {
		return nil, nil
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var payload struct {
		Tracks struct {
			Items []json.RawMessage `json:"items"`
		} `json:"tracks"`
	}
	if err := s.doRequest(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(payload.Tracks.Items))
	ids := make([]string, 0, len(payload.Tracks.Items))
	for _, raw := range payload.Tracks.Items {
		var st SpotifyTrack
		if err := json.Unmarshal(raw, &st); err != nil || st.ID == "" || st.Name == "" {
			continue
		}
		tracks = append(tracks, s.parseTrack(&st))
		ids = append(ids, st.ID)
	}

	// Tempo lives on a separate endpoint; fill it in post-hoc with one
	// batched call so search stays at two round trips.
	if bpm, err := s.audioFeatures(ctx, ids); err == nil {
		for i := range tracks {
			nativeID := models.SourceSpotify.StripTrackID(tracks[i].ID)
			if tempo, ok := bpm[nativeID]; ok {
				t := tempo
				tracks[i].BPM = &t
			}
		}
	}

	return tracks, nil
}

func (s *SpotifyPlatform) GetTrack(ctx context.Context, trackID string) (*models.Track, error) {
	if !s.Available() {
		return nil, fmt.Errorf("%w: spotify credentials not configured", shared.ErrPlatformUnavailable)
	}

	nativeID := models.SourceSpotify.StripTrackID(strings.TrimSpace(trackID))
	if !validSpotifyID(nativeID) {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidTrackID, nativeID)
	}

	var st SpotifyTrack
	if err := s.doRequest(ctx, "/tracks/"+nativeID, &st); err != nil {
		return nil, err
	}
	if st.ID == "" {
		return nil, shared.ErrTrackNotFound
	}

	track := s.parseTrack(&st)
	if bpm, err := s.BPM(ctx, &track); err == nil {
		track.BPM = bpm
	}

	return &track, nil
}

// Download always fails: Spotify offers no licensed direct-download path. The
// download resolver catches this and substitutes the video-platform pipeline.
func (s *SpotifyPlatform) Download(ctx context.Context, track *models.Track, outputDir string) (string, error) {
	return "", fmt.Errorf("%w: spotify does not allow direct downloads", shared.ErrUnsupportedOperation)
}

// BPM performs the dedicated tempo-feature lookup, rounded to one decimal.
func (s *SpotifyPlatform) BPM(ctx context.Context, track *models.Track) (*float64, error) {
	if !s.Available() {
		return nil, fmt.Errorf("%w: spotify credentials not configured", shared.ErrPlatformUnavailable)
	}

	nativeID := models.SourceSpotify.StripTrackID(track.ID)
	if !validSpotifyID(nativeID) {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidTrackID, nativeID)
	}

	var features SpotifyAudioFeatures
	if err := s.doRequest(ctx, "/audio-features/"+nativeID, &features); err != nil {
		return nil, err
	}
	if features.Tempo <= 0 {
		return nil, nil
	}

	tempo := roundTempo(features.Tempo)
	return &tempo, nil
}

// audioFeatures fetches tempo for up to 100 track ids in one call and maps
// native id to rounded tempo. Tracks without a positive tempo are omitted.
func (s *SpotifyPlatform) audioFeatures(ctx context.Context, ids []string) (map[string]float64, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validSpotifyID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	if len(valid) > 100 {
		valid = valid[:100]
	}

	endpoint := "/audio-features?ids=" + url.QueryEscape(strings.Join(valid, ","))

	var payload struct {
		AudioFeatures []*SpotifyAudioFeatures `json:"audio_features"`
	}
	if err := s.doRequest(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	tempos := make(map[string]float64, len(payload.AudioFeatures))
	for _, f := range payload.AudioFeatures {
		if f != nil && f.Tempo > 0 {
			tempos[f.ID] = roundTempo(f.Tempo)
		}
	}

	return tempos, nil
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyPlatform) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrTrackNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (s *SpotifyPlatform) parseTrack(st *SpotifyTrack) models.Track {
	names := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	artist := strings.Join(names, ", ")
	if artist == "" {
		artist = "Unknown Artist"
	}

	title := st.Name
	if title == "" {
		title = "Unknown"
	}

	artwork := ""
	if len(st.Album.Images) > 0 {
		artwork = st.Album.Images[0].URL
	}

	return models.Track{
		ID:         models.SourceSpotify.TrackID(st.ID),
		Title:      title,
		Artist:     artist,
		Source:     models.SourceSpotify,
		URL:        st.ExternalURLs.Spotify,
		Duration:   st.DurationMS / 1000,
		ArtworkURL: artwork,
	}
}

func validSpotifyID(id string) bool {
	if len(id) != spotifyIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

func roundTempo(tempo float64) float64 {
	return math.Round(tempo*10) / 10
}
