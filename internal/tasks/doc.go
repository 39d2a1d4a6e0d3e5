// Package tasks implements the orchestration layer: multi-platform search
// fan-out and the download resolution policy. Engines hold the adapter
// registry and never reach past the [services.Platform] interface.
package tasks
