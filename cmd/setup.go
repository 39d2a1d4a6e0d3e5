package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration file so credentials can be
// filled in.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Fill in credentials to enable SoundCloud and Spotify.\n")

	return nil
}
