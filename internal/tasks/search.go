package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
)

// SearchEngine fans search queries out across the registered platform
// adapters and merges the results in a stable platform order.
type SearchEngine struct {
	platforms map[models.PlatformSource]services.Platform
	order     []models.PlatformSource
	logger    *log.Logger
}

// NewSearchEngine registers the given adapters. Result ordering follows
// [models.AllSources]; adapters for sources not in that list are ignored.
func NewSearchEngine(platforms []services.Platform, logger *log.Logger) *SearchEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	registry := make(map[models.PlatformSource]services.Platform, len(platforms))
	for _, p := range platforms {
		registry[p.Name()] = p
	}

	order := make([]models.PlatformSource, 0, len(registry))
	for _, source := range models.AllSources() {
		if _, ok := registry[source]; ok {
			order = append(order, source)
		}
	}

	return &SearchEngine{platforms: registry, order: order, logger: logger}
}

// Platform returns the adapter registered for source.
func (e *SearchEngine) Platform(source models.PlatformSource) (services.Platform, error) {
	p, ok := e.platforms[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownPlatform, source)
	}
	return p, nil
}

// AvailablePlatforms lists the sources whose adapters report themselves
// ready, in registry order.
func (e *SearchEngine) AvailablePlatforms() []models.PlatformSource {
	available := make([]models.PlatformSource, 0, len(e.order))
	for _, source := range e.order {
		if e.platforms[source].Available() {
			available = append(available, source)
		}
	}
	return available
}

// PlatformInfo describes every registered platform, available or not.
func (e *SearchEngine) PlatformInfo() []models.PlatformInfo {
	info := make([]models.PlatformInfo, 0, len(e.order))
	for _, source := range e.order {
		p := e.platforms[source]
		caps := p.Capabilities()
		info = append(info, models.PlatformInfo{
			Name:             source,
			Available:        p.Available(),
			SupportsDownload: caps.Download,
			SupportsBPM:      caps.BPM,
		})
	}
	return info
}

// SearchAll queries every available platform concurrently and concatenates
// the per-platform result slices in registry order. A platform that errors
// contributes nothing; its failure is logged and the rest proceed. Passing
// sources narrows the fan-out to that subset; unknown or unavailable entries
// are skipped.
func (e *SearchEngine) SearchAll(ctx context.Context, query string, limit int, sources ...models.PlatformSource) *models.SearchResponse {
	available := e.AvailablePlatforms()
	if len(sources) > 0 {
		requested := make(map[models.PlatformSource]bool, len(sources))
		for _, source := range sources {
			requested[source] = true
		}
		subset := make([]models.PlatformSource, 0, len(available))
		for _, source := range available {
			if requested[source] {
				subset = append(subset, source)
			}
		}
		available = subset
	}
	perPlatform := make([][]models.Track, len(available))

	var wg sync.WaitGroup
	for i, source := range available {
		wg.Add(1)
		go func(i int, p services.Platform) {
			defer wg.Done()
			tracks, err := p.Search(ctx, query, limit)
			if err != nil {
				e.logger.Error("platform search failed", "platform", p.Name(), "error", err)
				return
			}
			perPlatform[i] = tracks
		}(i, e.platforms[source])
	}
	wg.Wait()

	merged := []models.Track{}
	for _, tracks := range perPlatform {
		merged = append(merged, tracks...)
	}

	return &models.SearchResponse{
		Query:        query,
		TotalResults: len(merged),
		Results:      merged,
	}
}

// SearchPlatform queries a single platform by source. An unavailable platform
// degrades to an empty result set, matching the fan-out behavior; only an
// unregistered source is an error.
func (e *SearchEngine) SearchPlatform(ctx context.Context, source models.PlatformSource, query string, limit int) (*models.SearchResponse, error) {
	p, err := e.Platform(source)
	if err != nil {
		return nil, err
	}

	tracks := []models.Track{}
	if p.Available() {
		tracks, err = p.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		if tracks == nil {
			tracks = []models.Track{}
		}
	} else {
		e.logger.Warn("platform unavailable", "platform", source)
	}

	return &models.SearchResponse{
		Query:        query,
		TotalResults: len(tracks),
		Results:      tracks,
	}, nil
}

// GetTrack routes a prefixed track id to its owning platform.
func (e *SearchEngine) GetTrack(ctx context.Context, trackID string) (*models.Track, error) {
	source, ok := models.SourceOfTrackID(trackID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidTrackID, trackID)
	}

	p, err := e.Platform(source)
	if err != nil {
		return nil, err
	}
	if !p.Available() {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlatformUnavailable, source)
	}

	return p.GetTrack(ctx, trackID)
}
