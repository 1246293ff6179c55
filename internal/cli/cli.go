package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dropsite-ai/ghrelease"
	"github.com/dropsite-ai/ghrelease/internal/cli/config"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Version is set at build time.
var Version = "dev"

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to load .env")
	}

	if err := newApp(os.Stdout, os.Stderr).Run(ctx, args); err != nil {
		slog.Default().Error("ghrelease failed", slog.Any("error", err))
		return err
	}
	return nil
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	var (
		loggerCfg = config.Logger{Output: stderr}
		githubCfg config.GitHub
		filterCfg config.Filter

		outputDir   string
		leaveZipped bool
		quiet       bool
		logger      *slog.Logger
	)

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "repo",
			Aliases:  []string{"r"},
			Usage:    "Repository in 'owner/repo' format; repeat for several repositories",
			Required: true,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Directory to write assets to",
			Value:       ".",
			Destination: &outputDir,
			Sources:     cli.EnvVars("GHRELEASE_OUTPUT"),
		},
		&cli.BoolFlag{
			Name:        "leave-zipped",
			Usage:       "Keep zip assets instead of extracting them",
			Destination: &leaveZipped,
		},
		&cli.BoolFlag{
			Name:        "quiet",
			Aliases:     []string{"q"},
			Usage:       "Disable progress bars and log lines",
			Destination: &quiet,
		},
	}
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, filterCfg.Flags()...)

	return &cli.Command{
		Name:      "ghrelease",
		Usage:     "Download and unpack GitHub release assets",
		Version:   Version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}
			slog.SetDefault(logger)
			return ctx, nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			assetFilter, err := filterCfg.AssetFilter()
			if err != nil {
				return err
			}

			d, err := githubCfg.NewDownloader(logger)
			if err != nil {
				return err
			}
			if githubCfg.Token == "" && !quiet {
				logger.Warn("No GitHub token provided; unauthenticated requests are rate limited")
			}

			results, err := d.DownloadReleases(ctx, c.StringSlice("repo"), &ghrelease.Request{
				OutputDir:      outputDir,
				FilterRelease:  filterCfg.ReleaseFilter(),
				FilterAsset:    assetFilter,
				LeaveZipped:    leaveZipped,
				DisableLogging: quiet,
			})
			if err != nil {
				return err
			}

			printResults(stdout, results)
			return nil
		},
	}
}

func printResults(w io.Writer, results []*ghrelease.Result) {
	path := color.New(color.FgGreen)
	skipped := color.New(color.FgYellow)
	entry := color.New(color.Faint)

	for _, r := range results {
		if r.Skipped {
			skipped.Fprintf(w, "%s (already present)\n", r.Path)
		} else {
			path.Fprintln(w, r.Path)
		}
		for _, e := range r.Entries {
			entry.Fprintf(w, "  %s\n", e)
		}
	}
}
