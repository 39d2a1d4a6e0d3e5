package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

// Download resolves a track by id and downloads its audio as MP3. Tracks
// from platforms without direct downloads are fetched from YouTube instead.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("id")
	if trackID == "" {
		return fmt.Errorf("%w: a track id is required (e.g. dz_3135556)", shared.ErrMissingArgument)
	}

	var source models.PlatformSource
	if flag := cmd.String("source"); flag != "" {
		parsed, err := models.ParseSource(flag)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrUnknownPlatform, err)
		}
		source = parsed
	} else {
		inferred, ok := models.SourceOfTrackID(trackID)
		if !ok {
			return fmt.Errorf("%w: id %q carries no platform prefix, pass --source", shared.ErrInvalidTrackID, trackID)
		}
		source = inferred
	}

	r.logger.Info("downloading track", "id", trackID, "source", source, "dir", r.downloads.OutputDir())

	response, err := r.downloads.DownloadTrack(ctx, source, trackID)
	if cmd.Bool("json") {
		return r.writeJSON(response, true)
	}
	if err != nil {
		return err
	}

	r.writePlain("✓ Download complete\n")
	r.writePlain("Track: %s - %s\n", response.Track.Artist, response.Track.Title)
	r.writePlain("File: %s\n", response.Filepath)

	return nil
}
