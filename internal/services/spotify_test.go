package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

// newTestSpotify bypasses the OAuth token exchange by injecting a plain
// client pointed at the test server.
func newTestSpotify(baseURL string) *SpotifyPlatform {
	return &SpotifyPlatform{baseURL: baseURL, httpClient: &http.Client{Timeout: time.Second}}
}

const spotifyTestID = "4uLU6hMCjMI75M1A2tKUQC"
const spotifyTestID2 = "7ouMYWpwJ422jRcDASZB7P"

func TestSpotifyPlatform(t *testing.T) {
	ctx := context.Background()

	t.Run("availability follows credentials", func(t *testing.T) {
		if NewSpotifyPlatform("", "", 0).Available() {
			t.Error("expected unavailable without credentials")
		}
		if NewSpotifyPlatform("id", "", 0).Available() {
			t.Error("expected unavailable without secret")
		}
		if !NewSpotifyPlatform("id", "secret", 0).Available() {
			t.Error("expected available with credentials")
		}
	})

	t.Run("Search fills bpm from batched audio features", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/search":
				w.Write([]byte(`{"tracks": {"items": [
					{"id": "` + spotifyTestID + `", "name": "Never Gonna Give You Up", "artists": [{"id": "a1", "name": "Rick Astley"}], "album": {"id": "al1", "name": "Whenever", "images": [{"url": "https://img/640.jpg", "height": 640, "width": 640}]}, "duration_ms": 213573, "external_urls": {"spotify": "https://open.spotify.com/track/` + spotifyTestID + `"}},
					{"id": "` + spotifyTestID2 + `", "name": "Uptown Funk", "artists": [{"id": "a2", "name": "Mark Ronson"}, {"id": "a3", "name": "Bruno Mars"}], "album": {"id": "al2", "name": "Uptown Special", "images": []}, "duration_ms": 269667, "external_urls": {"spotify": "https://open.spotify.com/track/` + spotifyTestID2 + `"}}
				]}}`))
			case "/audio-features":
				w.Write([]byte(`{"audio_features": [
					{"id": "` + spotifyTestID + `", "tempo": 113.33},
					null
				]}`))
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		s := newTestSpotify(server.URL)
		tracks, err := s.Search(ctx, "never gonna", 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].ID != "sp_"+spotifyTestID {
			t.Errorf("expected prefixed id, got %s", tracks[0].ID)
		}
		if tracks[0].Duration != 213 {
			t.Errorf("expected duration 213s, got %d", tracks[0].Duration)
		}
		if tracks[0].BPM == nil || *tracks[0].BPM != 113.3 {
			t.Errorf("expected rounded bpm 113.3, got %v", tracks[0].BPM)
		}
		if tracks[1].BPM != nil {
			t.Error("expected nil bpm for track without features")
		}
		if tracks[1].Artist != "Mark Ronson, Bruno Mars" {
			t.Errorf("expected joined artists, got %s", tracks[1].Artist)
		}
	})

	t.Run("Search when unavailable", func(t *testing.T) {
		s := NewSpotifyPlatform("", "", 0)
		if _, err := s.Search(ctx, "query", 10); !errors.Is(err, shared.ErrPlatformUnavailable) {
			t.Errorf("expected ErrPlatformUnavailable, got %v", err)
		}
	})

	t.Run("GetTrack", func(t *testing.T) {
		t.Run("rejects malformed ids", func(t *testing.T) {
			s := newTestSpotify("http://unused.invalid")
			for _, id := range []string{"", "short", "sp_short", "this-id-has-bad-chars!!"} {
				if _, err := s.GetTrack(ctx, id); !errors.Is(err, shared.ErrInvalidTrackID) {
					t.Errorf("GetTrack(%q): expected ErrInvalidTrackID, got %v", id, err)
				}
			}
		})

		t.Run("fetches detail with bpm", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/tracks/" + spotifyTestID:
					w.Write([]byte(`{"id": "` + spotifyTestID + `", "name": "Never Gonna Give You Up", "artists": [{"id": "a1", "name": "Rick Astley"}], "album": {"id": "al1", "name": "Whenever", "images": []}, "duration_ms": 213573, "external_urls": {"spotify": "https://open.spotify.com/track/` + spotifyTestID + `"}}`))
				case "/audio-features/" + spotifyTestID:
					w.Write([]byte(`{"id": "` + spotifyTestID + `", "tempo": 113.37}`))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer server.Close()

			s := newTestSpotify(server.URL)
			track, err := s.GetTrack(ctx, "sp_"+spotifyTestID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track.BPM == nil || *track.BPM != 113.4 {
				t.Errorf("expected rounded bpm 113.4, got %v", track.BPM)
			}
		})

		t.Run("fills in a missing title", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/tracks/" + spotifyTestID:
					w.Write([]byte(`{"id": "` + spotifyTestID + `", "name": "", "artists": [], "album": {"id": "al1", "name": "Whenever", "images": []}, "duration_ms": 213573, "external_urls": {"spotify": "https://open.spotify.com/track/` + spotifyTestID + `"}}`))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer server.Close()

			s := newTestSpotify(server.URL)
			track, err := s.GetTrack(ctx, "sp_"+spotifyTestID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track.Title != "Unknown" {
				t.Errorf("expected Unknown title, got %q", track.Title)
			}
			if track.Artist != "Unknown Artist" {
				t.Errorf("expected Unknown Artist, got %q", track.Artist)
			}
		})
	})

	t.Run("Download is unsupported", func(t *testing.T) {
		s := newTestSpotify("http://unused.invalid")
		_, err := s.Download(ctx, &models.Track{ID: "sp_" + spotifyTestID}, t.TempDir())
		if !errors.Is(err, shared.ErrUnsupportedOperation) {
			t.Errorf("expected ErrUnsupportedOperation, got %v", err)
		}
	})

	t.Run("BPM treats non-positive tempo as absent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "` + spotifyTestID + `", "tempo": 0}`))
		}))
		defer server.Close()

		s := newTestSpotify(server.URL)
		bpm, err := s.BPM(ctx, &models.Track{ID: "sp_" + spotifyTestID})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if bpm != nil {
			t.Errorf("expected nil bpm, got %v", *bpm)
		}
	})

	t.Run("validSpotifyID", func(t *testing.T) {
		if !validSpotifyID(spotifyTestID) {
			t.Error("expected valid id to pass")
		}
		for _, id := range []string{"", "tooshort", spotifyTestID + "x", "4uLU6hMCjMI75M1A2tKUQ!"} {
			if validSpotifyID(id) {
				t.Errorf("expected %q to be invalid", id)
			}
		}
	})
}
