package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/desertthunder/cratedig/internal/server"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	extractor := services.NewAudioExtractor(config.Extractor, logger)
	platforms := buildPlatforms(config, extractor)

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Platforms: platforms,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "cratedig",
		Usage:    "Search and download tracks across Deezer, YouTube, SoundCloud & Spotify",
		Version:  server.Version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// buildPlatforms constructs every adapter. Spotify and SoundCloud degrade to
// unavailable when credentials are missing; Deezer and YouTube always work.
func buildPlatforms(config *shared.Config, extractor services.Extractor) []services.Platform {
	timeout := 10 * time.Second

	return []services.Platform{
		services.NewDeezerPlatform(extractor, timeout),
		services.NewYouTubePlatform(extractor),
		services.NewSoundCloudPlatform(config.Credentials.SoundCloud.ClientID, extractor, timeout),
		services.NewSpotifyPlatform(config.Credentials.Spotify.ClientID, config.Credentials.Spotify.ClientSecret, timeout),
	}
}
