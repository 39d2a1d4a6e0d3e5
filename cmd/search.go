package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cratedig/internal/formatter"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries all available platforms, or a single one when --platform is
// given, and prints the merged results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: a search query is required", shared.ErrMissingArgument)
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		limit = r.config.Search.DefaultLimit
	}
	if limit > r.config.Search.MaxLimit {
		limit = r.config.Search.MaxLimit
	}

	var response *models.SearchResponse
	if platform := cmd.String("platform"); platform != "" {
		source, err := models.ParseSource(platform)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrUnknownPlatform, err)
		}
		r.logger.Info("searching platform", "platform", source, "query", query, "limit", limit)
		response, err = r.search.SearchPlatform(ctx, source, query, limit)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	} else {
		r.logger.Info("searching all platforms", "query", query, "limit", limit)
		response = r.search.SearchAll(ctx, query, limit)
	}

	if output := cmd.String("output"); output != "" {
		outFile, err := formatter.WriteCSVExport(response, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Results written to %s\n", outFile)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(response, cmd.Bool("pretty"))
	}

	return r.writeResults(response, cmd.String("format"))
}

func (r *Runner) writeResults(response *models.SearchResponse, format string) error {
	var data []byte
	var err error

	switch format {
	case "csv":
		data, err = formatter.ResultsToCSV(response)
	case "markdown", "md":
		data, err = formatter.ResultsToMarkdown(response)
	case "text", "":
		data, err = formatter.ResultsToText(response)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, format)
	}
	if err != nil {
		return err
	}

	return r.writePlain("%s", data)
}

// Track fetches one track's metadata by its prefixed id.
func (r *Runner) Track(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("id")
	if trackID == "" {
		return fmt.Errorf("%w: a track id is required (e.g. dz_3135556)", shared.ErrMissingArgument)
	}

	r.logger.Info("fetching track", "id", trackID)

	track, err := r.search.GetTrack(ctx, trackID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(track, cmd.Bool("pretty"))
	}

	r.writePlain("Title: %s\n", track.Title)
	r.writePlain("Artist: %s\n", track.Artist)
	r.writePlain("Platform: %s\n", track.Source)
	r.writePlain("ID: %s\n", track.ID)
	if track.Duration > 0 {
		r.writePlain("Duration: %s\n", shared.FormatDuration(track.Duration))
	}
	if track.BPM != nil {
		r.writePlain("BPM: %.1f\n", *track.BPM)
	}
	if track.Genre != "" {
		r.writePlain("Genre: %s\n", track.Genre)
	}
	r.writePlain("URL: %s\n", track.URL)

	return nil
}

// Platforms lists every registered platform with its availability and
// capability flags.
func (r *Runner) Platforms(ctx context.Context, cmd *cli.Command) error {
	info := r.search.PlatformInfo()

	if cmd.Bool("json") {
		return r.writeJSON(info, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Platforms")
	for _, p := range info {
		status := "unavailable"
		if p.Available {
			status = "available"
		}
		r.writePlain("%-12s %-12s download=%-5v bpm=%v\n", p.Name, status, p.SupportsDownload, p.SupportsBPM)
	}

	return nil
}
