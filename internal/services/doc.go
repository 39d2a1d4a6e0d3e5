// Package services holds the per-platform adapters and the shared audio
// extraction pipeline. Each adapter satisfies [Platform]; callers never
// branch on the concrete type, only on [models.Capabilities].
package services
