// Package models defines the normalized domain types shared by every platform
// adapter and every API response.
//
// The central type is [Track], a flat per-request record parsed from upstream
// JSON. Tracks carry globally unique ids composed of a two-letter platform
// prefix plus the platform-native identifier ("dz_3135556"); the prefix maps
// back to exactly one [PlatformSource] via [SourceOfTrackID].
//
// Capability flags are a closed compile-time table ([CapabilitiesOf]) rather
// than per-instance state: the platform set is fixed and known, so whether a
// platform supports direct download or exposes tempo metadata never varies at
// runtime.
//
// Request/response envelopes ([SearchResponse], [DownloadRequest],
// [DownloadResponse], [PlatformInfo]) are transport shapes for the HTTP layer,
// not long-lived entities. Nothing in this package is persisted.
package models
