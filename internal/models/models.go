// package models defines the data model for the track search and download service
package models

import (
	"fmt"
	"strings"
)

// PlatformSource identifies the upstream platform a track came from.
type PlatformSource string

const (
	SourceSoundCloud PlatformSource = "soundcloud"
	SourceSpotify    PlatformSource = "spotify"
	SourceDeezer     PlatformSource = "deezer"
	SourceYouTube    PlatformSource = "youtube"
)

// AllSources returns every platform tag in the fixed fan-out order. The order
// is load-bearing: untargeted searches group results platform by platform in
// this sequence.
func AllSources() []PlatformSource {
	return []PlatformSource{SourceSoundCloud, SourceSpotify, SourceDeezer, SourceYouTube}
}

// ParseSource converts a string into a PlatformSource, rejecting unknown tags.
func ParseSource(s string) (PlatformSource, error) {
	source := PlatformSource(strings.ToLower(strings.TrimSpace(s)))
	switch source {
	case SourceSoundCloud, SourceSpotify, SourceDeezer, SourceYouTube:
		return source, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

func (p PlatformSource) String() string {
	return string(p)
}

// prefixTable maps each platform to its two-letter id prefix. Prefixes are
// pairwise distinct across the closed platform set, so a prefixed id maps
// back to exactly one platform.
var prefixTable = map[PlatformSource]string{
	SourceSoundCloud: "sc",
	SourceSpotify:    "sp",
	SourceDeezer:     "dz",
	SourceYouTube:    "yt",
}

// Prefix returns the two-letter id prefix for this platform ("sc", "sp",
// "dz", "yt").
func (p PlatformSource) Prefix() string {
	return prefixTable[p]
}

// TrackID joins the platform prefix with a platform-native identifier,
// producing an id unique across all platforms (e.g. "dz_3135556").
func (p PlatformSource) TrackID(nativeID string) string {
	return p.Prefix() + "_" + nativeID
}

// StripTrackID removes this platform's id prefix if present, returning the
// platform-native identifier. Ids without the prefix pass through unchanged.
func (p PlatformSource) StripTrackID(id string) string {
	return strings.TrimPrefix(id, p.Prefix()+"_")
}

// SourceOfTrackID resolves the platform a prefixed track id belongs to.
func SourceOfTrackID(id string) (PlatformSource, bool) {
	for _, source := range AllSources() {
		if strings.HasPrefix(id, source.Prefix()+"_") {
			return source, true
		}
	}
	return "", false
}

// Capabilities describes what a platform adapter can do. The flags are fixed
// per platform; see CapabilitiesOf.
type Capabilities struct {
	Download bool // direct audio download supported
	BPM      bool // tempo metadata exposed by the platform API
}

// capabilityTable is the closed capability matrix. Spotify has no licensed
// direct-download path; SoundCloud and YouTube expose no tempo data.
var capabilityTable = map[PlatformSource]Capabilities{
	SourceSoundCloud: {Download: true, BPM: false},
	SourceSpotify:    {Download: false, BPM: true},
	SourceDeezer:     {Download: true, BPM: true},
	SourceYouTube:    {Download: true, BPM: false},
}

// CapabilitiesOf returns the fixed capability flags for a platform.
func CapabilitiesOf(p PlatformSource) Capabilities {
	return capabilityTable[p]
}

// Track is the normalized cross-platform track record. Instances are built
// per request from upstream JSON and never persisted.
type Track struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Artist     string         `json:"artist"`
	Source     PlatformSource `json:"source"`
	URL        string         `json:"url"`
	BPM        *float64       `json:"bpm,omitempty"`
	Duration   int            `json:"duration,omitempty"` // seconds
	ArtworkURL string         `json:"artwork_url,omitempty"`
	Genre      string         `json:"genre,omitempty"`
}

// Copy returns a shallow copy of the track. BPM is re-pointed so the copy
// can be mutated without touching the original.
func (t *Track) Copy() *Track {
	clone := *t
	if t.BPM != nil {
		bpm := *t.BPM
		clone.BPM = &bpm
	}
	return &clone
}

// SearchResponse is the envelope returned by the search routes.
type SearchResponse struct {
	Query        string  `json:"query"`
	TotalResults int     `json:"total_results"`
	Results      []Track `json:"results"`
}

// DownloadRequest is the request body for the download route.
type DownloadRequest struct {
	TrackID string         `json:"track_id"`
	Source  PlatformSource `json:"source"`
	URL     string         `json:"url,omitempty"`
}

// Download status values. The operation is synchronous, so there is no
// pending state: a response is either ready or an error.
const (
	StatusReady = "ready"
	StatusError = "error"
)

// DownloadResponse reports the outcome of a download. Status "ready" implies
// Filepath and Track are populated; "error" implies Error is populated.
type DownloadResponse struct {
	Status   string `json:"status"`
	Filepath string `json:"filepath,omitempty"`
	Error    string `json:"error,omitempty"`
	Track    *Track `json:"track,omitempty"`
}

// PlatformInfo describes one platform for the introspection route.
type PlatformInfo struct {
	Name             PlatformSource `json:"name"`
	Available        bool           `json:"available"`
	SupportsDownload bool           `json:"supports_download"`
	SupportsBPM      bool           `json:"supports_bpm"`
}
