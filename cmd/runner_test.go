package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
	tu "github.com/desertthunder/cratedig/internal/testing"
	"github.com/urfave/cli/v3"
)

func quietLogger() *log.Logger {
	logger := shared.NewLogger(nil)
	shared.SetLogLevel(logger, log.FatalLevel)
	return logger
}

func testDeezer() *tu.MockPlatform {
	bpm := 128.0
	m := &tu.MockPlatform{
		Source: models.SourceDeezer,
		Up:     true,
		Caps:   models.CapabilitiesOf(models.SourceDeezer),
	}
	m.SearchFn = func(ctx context.Context, query string, limit int) ([]models.Track, error) {
		return []models.Track{
			{ID: "dz_1", Title: "Harder Better", Artist: "Daft Punk", Source: models.SourceDeezer, Duration: 224, BPM: &bpm},
		}, nil
	}
	m.GetTrackFn = func(ctx context.Context, trackID string) (*models.Track, error) {
		if trackID != "dz_1" {
			return nil, shared.ErrTrackNotFound
		}
		return &models.Track{ID: "dz_1", Title: "Harder Better", Artist: "Daft Punk", Source: models.SourceDeezer, Duration: 224, BPM: &bpm, URL: "https://www.deezer.com/track/1"}, nil
	}
	m.DownloadFn = func(ctx context.Context, track *models.Track, outputDir string) (string, error) {
		return filepath.Join(outputDir, "Daft Punk - Harder Better.mp3"), nil
	}
	return m
}

func testRunner(platforms ...services.Platform) (*Runner, *bytes.Buffer) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Platforms: platforms,
		Logger:    quietLogger(),
		Output:    output,
	})
	return runner, output
}

func run(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	var cmd func(*Runner) *cli.Command
	switch args[0] {
	case "search":
		cmd = searchCommand
	case "track":
		cmd = trackCommand
	case "download":
		cmd = downloadCommand
	case "platforms":
		cmd = platformsCommand
	case "setup":
		cmd = setupCommand
	default:
		t.Fatalf("unknown command %s", args[0])
	}
	return cmd(runner).Run(context.Background(), args)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.search == nil || runner.downloads == nil {
				t.Error("expected engines to be built")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.downloads.OutputDir() != "./downloads" {
				t.Errorf("expected default download dir, got %s", runner.downloads.OutputDir())
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 7 {
			t.Errorf("expected 7 commands, got %d", len(commands))
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("SetLogger rebuilds engines", func(t *testing.T) {
		runner, _ := testRunner(testDeezer())
		before := runner.search

		runner.SetLogger(quietLogger())

		if runner.search == before {
			t.Error("expected a fresh search engine")
		}
		if len(runner.search.PlatformInfo()) != 1 {
			t.Error("expected platforms to carry over")
		}
	})
}

func TestSearchCommand(t *testing.T) {
	t.Run("prints text results by default", func(t *testing.T) {
		runner, output := testRunner(testDeezer())

		if err := run(t, runner, "search", "harder better"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Query: harder better") {
			t.Errorf("missing query line in:\n%s", result)
		}
		if !strings.Contains(result, "1. [deezer] Daft Punk - Harder Better (dz_1)") {
			t.Errorf("missing result line in:\n%s", result)
		}
	})

	t.Run("requires a query", func(t *testing.T) {
		runner, _ := testRunner(testDeezer())

		err := run(t, runner, "search")
		if err == nil {
			t.Fatal("expected error without a query")
		}
		if !strings.Contains(err.Error(), "search query is required") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("single platform via flag", func(t *testing.T) {
		deezer := testDeezer()
		runner, output := testRunner(deezer)

		if err := run(t, runner, "search", "--platform", "deezer", "harder better"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if deezer.SearchCalls != 1 {
			t.Errorf("expected one search call, got %d", deezer.SearchCalls)
		}
		if !strings.Contains(output.String(), "Daft Punk") {
			t.Errorf("missing result in:\n%s", output.String())
		}
	})

	t.Run("rejects unknown platforms", func(t *testing.T) {
		runner, _ := testRunner(testDeezer())

		err := run(t, runner, "search", "--platform", "bandcamp", "harder better")
		if err == nil {
			t.Fatal("expected error for unknown platform")
		}
	})

	t.Run("json output decodes as an envelope", func(t *testing.T) {
		runner, output := testRunner(testDeezer())

		if err := run(t, runner, "search", "--json", "harder better"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var response models.SearchResponse
		if err := json.Unmarshal(output.Bytes(), &response); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if response.TotalResults != 1 {
			t.Errorf("expected one result, got %d", response.TotalResults)
		}
	})

	t.Run("csv format", func(t *testing.T) {
		runner, output := testRunner(testDeezer())

		if err := run(t, runner, "search", "--format", "csv", "harder better"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(output.String(), "ID,Title,Artist,Platform,Duration,BPM,URL") {
			t.Errorf("missing CSV header in:\n%s", output.String())
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		runner, _ := testRunner(testDeezer())

		err := run(t, runner, "search", "--format", "xml", "harder better")
		if err == nil {
			t.Fatal("expected error for unknown format")
		}
	})

	t.Run("csv export via output flag", func(t *testing.T) {
		runner, output := testRunner(testDeezer())
		base := filepath.Join(t.TempDir(), "crate")

		if err := run(t, runner, "search", "--output", base, "harder better"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, base+".csv")
		if !strings.Contains(output.String(), base+".csv") {
			t.Errorf("expected confirmation in:\n%s", output.String())
		}
	})
}

func TestTrackCommand(t *testing.T) {
	t.Run("prints track detail", func(t *testing.T) {
		runner, output := testRunner(testDeezer())

		if err := run(t, runner, "track", "dz_1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		for _, want := range []string{"Title: Harder Better", "Artist: Daft Punk", "Platform: deezer", "Duration: 3:44", "BPM: 128.0"} {
			if !strings.Contains(result, want) {
				t.Errorf("missing %q in:\n%s", want, result)
			}
		}
	})

	t.Run("requires an id", func(t *testing.T) {
		runner, _ := testRunner(testDeezer())

		if err := run(t, runner, "track"); err == nil {
			t.Fatal("expected error without an id")
		}
	})

	t.Run("propagates lookup failures", func(t *testing.T) {
		runner, _ := testRunner(testDeezer())

		err := run(t, runner, "track", "dz_999")
		if err == nil {
			t.Fatal("expected error for missing track")
		}
	})
}

func TestDownloadCommand(t *testing.T) {
	t.Run("downloads by prefixed id", func(t *testing.T) {
		deezer := testDeezer()
		runner, output := testRunner(deezer)

		if err := run(t, runner, "download", "dz_1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if deezer.DownloadCalls != 1 {
			t.Errorf("expected one download call, got %d", deezer.DownloadCalls)
		}

		result := output.String()
		if !strings.Contains(result, "Download complete") {
			t.Errorf("missing confirmation in:\n%s", result)
		}
		if !strings.Contains(result, "Daft Punk - Harder Better.mp3") {
			t.Errorf("missing filepath in:\n%s", result)
		}
	})

	t.Run("requires a source for bare ids", func(t *testing.T) {
		runner, _ := testRunner(testDeezer())

		err := run(t, runner, "download", "12345")
		if err == nil {
			t.Fatal("expected error for bare id")
		}
		if !strings.Contains(err.Error(), "--source") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("json output carries the response even on failure", func(t *testing.T) {
		runner, output := testRunner(testDeezer())

		if err := run(t, runner, "download", "--json", "dz_999"); err != nil {
			t.Fatalf("expected no error in json mode, got %v", err)
		}

		var response models.DownloadResponse
		if err := json.Unmarshal(output.Bytes(), &response); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if response.Status != models.StatusError {
			t.Errorf("expected error status, got %s", response.Status)
		}
	})
}

func TestPlatformsCommand(t *testing.T) {
	t.Run("prints the capability table", func(t *testing.T) {
		runner, output := testRunner(testDeezer())

		if err := run(t, runner, "platforms"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Platforms") {
			t.Errorf("missing header in:\n%s", result)
		}
		if !strings.Contains(result, "deezer") || !strings.Contains(result, "available") {
			t.Errorf("missing platform row in:\n%s", result)
		}
	})

	t.Run("json output", func(t *testing.T) {
		runner, output := testRunner(testDeezer())

		if err := run(t, runner, "platforms", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var info []models.PlatformInfo
		if err := json.Unmarshal(output.Bytes(), &info); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(info) != 1 || !info[0].SupportsDownload || !info[0].SupportsBPM {
			t.Errorf("unexpected platform info %+v", info)
		}
	})
}

func TestSetupCommand(t *testing.T) {
	t.Run("writes an example config", func(t *testing.T) {
		runner, output := testRunner()
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := run(t, runner, "setup", "config", "--path", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(output.String(), path) {
			t.Errorf("expected confirmation in:\n%s", output.String())
		}

		config, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("written config does not load: %v", err)
		}
		if config.Search.DefaultLimit != 10 {
			t.Errorf("unexpected default limit %d", config.Search.DefaultLimit)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		runner, _ := testRunner()
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := run(t, runner, "setup", "config", "--path", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := run(t, runner, "setup", "config", "--path", path); err == nil {
			t.Fatal("expected error when the file exists")
		}
	})
}
