package ghrelease

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/go-github/v68/github"
	"github.com/m-mizutani/goerr/v2"
)

const listPageSize = 100

// ListReleases fetches every release of user/repo, newest first.
func (d *Downloader) ListReleases(ctx context.Context, user, repo string) ([]*Release, error) {
	return d.listReleases(ctx, user, repo, d.logger)
}

func (d *Downloader) listReleases(ctx context.Context, user, repo string, logger *slog.Logger) ([]*Release, error) {
	opts := &github.ListOptions{PerPage: listPageSize}

	var releases []*Release
	for {
		page, resp, err := d.client.Repositories.ListReleases(ctx, user, repo, opts)
		if err != nil {
			return nil, wrapAPIError(err, "failed to list releases",
				goerr.V("user", user),
				goerr.V("repo", repo),
				goerr.V("page", opts.Page),
			)
		}

		for _, r := range page {
			releases = append(releases, newRelease(r))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logger.Debug("listed releases",
		"user", user,
		"repo", repo,
		"count", len(releases),
	)
	return releases, nil
}

// wrapAPIError tags err as ErrNetwork and attaches the HTTP status when the
// API answered with one.
func wrapAPIError(err error, msg string, opts ...goerr.Option) error {
	var apiErr *github.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Response != nil {
		opts = append(opts, goerr.V("status", apiErr.Response.StatusCode))
	}
	opts = append(opts, goerr.V("cause", err.Error()))
	return goerr.Wrap(ErrNetwork, msg, opts...)
}
