package config

import (
	"log/slog"

	"github.com/dropsite-ai/ghrelease"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub API configuration
type GitHub struct {
	Token  string
	APIURL string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "token",
			Usage:       "GitHub token; unauthenticated requests are rate limited",
			Destination: &c.Token,
			Sources:     cli.EnvVars("GHRELEASE_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "api-url",
			Usage:       "GitHub API base URL, e.g. for GitHub Enterprise",
			Destination: &c.APIURL,
			Sources:     cli.EnvVars("GHRELEASE_API_URL"),
		},
	}
}

// NewDownloader builds a Downloader from the configuration
func (c *GitHub) NewDownloader(logger *slog.Logger) (*ghrelease.Downloader, error) {
	opts := []ghrelease.Option{ghrelease.WithLogger(logger)}
	if c.APIURL != "" {
		opts = append(opts, ghrelease.WithBaseURL(c.APIURL))
	}
	return ghrelease.New(c.Token, opts...)
}
