// Package ghrelease downloads the assets of a GitHub release and optionally
// expands zip assets into the output directory.
package ghrelease

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dropsite-ai/ghrelease/internal/unzip"
	"github.com/google/go-github/v68/github"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Downloader fetches releases and their assets from the GitHub API.
type Downloader struct {
	client     *github.Client
	httpClient *http.Client
	logger     *slog.Logger
	progress   Progress
}

// Request selects what DownloadRelease fetches and where it goes.
type Request struct {
	User      string
	Repo      string
	OutputDir string

	// FilterRelease and FilterAsset default to accepting everything.
	FilterRelease ReleaseFilter
	FilterAsset   AssetFilter

	// LeaveZipped keeps zip assets as downloaded instead of expanding them.
	LeaveZipped    bool
	DisableLogging bool
}

// New creates a Downloader. An empty token makes unauthenticated requests,
// which are subject to lower rate limits.
func New(token string, opts ...Option) (*Downloader, error) {
	cfg := &config{
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.progress == nil {
		cfg.progress = NewTerminalProgress(os.Stderr)
	}

	apiClient := cfg.httpClient
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, cfg.httpClient)
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		apiClient = oauth2.NewClient(ctx, ts)
	}

	client := github.NewClient(apiClient)
	if cfg.baseURL != "" {
		u, err := url.Parse(cfg.baseURL)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid base URL", goerr.V("url", cfg.baseURL))
		}
		client.BaseURL = u
	}

	return &Downloader{
		client:     client,
		httpClient: cfg.httpClient,
		logger:     cfg.logger,
		progress:   cfg.progress,
	}, nil
}

// DownloadRelease downloads a release with an unauthenticated Downloader.
func DownloadRelease(ctx context.Context, req *Request) ([]*Result, error) {
	d, err := New("")
	if err != nil {
		return nil, err
	}
	return d.DownloadRelease(ctx, req)
}

// DownloadRelease picks the newest release of req.User/req.Repo accepted by
// the filters and downloads each of its matching assets into req.OutputDir.
// Assets already present are not downloaded again. Zip assets are expanded
// and removed unless req.LeaveZipped is set. Results follow asset order; any
// failing asset fails the whole call.
func (d *Downloader) DownloadRelease(ctx context.Context, req *Request) ([]*Result, error) {
	if req == nil {
		return nil, goerr.Wrap(ErrInvalidInput, "missing request")
	}
	if req.User == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "missing user argument")
	}
	if req.Repo == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "missing repo argument")
	}

	outputDir, err := prepareOutputDir(req.OutputDir)
	if err != nil {
		return nil, err
	}

	logger, progress := d.logger, d.progress
	if req.DisableLogging {
		logger, progress = slog.New(slog.DiscardHandler), nil
	}

	releases, err := d.listReleases(ctx, req.User, req.Repo, logger)
	if err != nil {
		return nil, err
	}

	release := SelectRelease(releases, req.FilterRelease, req.FilterAsset)
	if release == nil {
		return nil, goerr.Wrap(ErrNotFound,
			fmt.Sprintf("could not find a release for %s/%s (%s %s)", req.User, req.Repo, runtime.GOOS, runtime.GOARCH),
			goerr.V("user", req.User),
			goerr.V("repo", req.Repo),
			goerr.V("releases", len(releases)),
		)
	}

	logger.Info(fmt.Sprintf("Downloading %s/%s@%s...", req.User, req.Repo, release.TagName))

	assets := matchingAssets(release, req.FilterAsset)
	results := make([]*Result, len(assets))

	eg, ctx := errgroup.WithContext(ctx)
	for i, asset := range assets {
		eg.Go(func() error {
			result, err := d.fetchAsset(ctx, req, outputDir, release, asset, progress, logger)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (d *Downloader) fetchAsset(ctx context.Context, req *Request, outputDir string, release *Release, asset *Asset, progress Progress, logger *slog.Logger) (*Result, error) {
	if name := filepath.Base(asset.Name); name != asset.Name || name == "." || name == ".." {
		return nil, goerr.Wrap(ErrInvalidInput, "asset name is not a plain file name", goerr.V("asset", asset.Name))
	}

	dest := filepath.Join(outputDir, asset.Name)
	result := &Result{Path: dest, Release: release}
	if !req.LeaveZipped {
		result.Entries = []string{}
	}

	switch _, err := os.Stat(dest); {
	case err == nil:
		logger.Info("Asset already present, skipping download", "path", dest)
		result.Skipped = true
		return result, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, goerr.Wrap(err, "failed to inspect destination", goerr.V("path", dest))
	}

	var track ProgressFunc
	if progress != nil {
		track = progress.Track(asset)
	}
	if err := d.downloadToFile(ctx, req.User, req.Repo, asset, dest, track); err != nil {
		return nil, err
	}
	logger.Debug("downloaded asset", "asset", asset.Name, "path", dest, "size", asset.Size)

	if req.LeaveZipped || !strings.HasSuffix(dest, ".zip") {
		return result, nil
	}

	entries, err := unzip.Extract(ctx, dest, outputDir)
	if err != nil {
		return nil, goerr.Wrap(ErrExtraction, "failed to extract archive",
			goerr.V("path", dest),
			goerr.V("cause", err.Error()),
		)
	}
	result.Entries = entries

	if err := os.Remove(dest); err != nil {
		return nil, goerr.Wrap(err, "failed to remove extracted archive", goerr.V("path", dest))
	}
	logger.Debug("extracted archive", "path", dest, "entries", len(entries))

	return result, nil
}

// prepareOutputDir resolves dir to an absolute path, creating it if needed.
func prepareOutputDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", goerr.Wrap(ErrInvalidInput, "failed to resolve output directory",
			goerr.V("dir", dir),
			goerr.V("cause", err.Error()),
		)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return "", goerr.Wrap(err, "failed to create output directory", goerr.V("dir", abs))
		}
		return abs, nil
	case err != nil:
		return "", goerr.Wrap(err, "failed to inspect output directory", goerr.V("dir", abs))
	case !info.IsDir():
		return "", goerr.Wrap(ErrInvalidInput, fmt.Sprintf("output path %q must be a directory", abs))
	}
	return abs, nil
}

// ParseUserRepo splits "owner/repo" into owner and repo.
func ParseUserRepo(userRepo string) (string, string, error) {
	parts := strings.Split(userRepo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", goerr.Wrap(ErrInvalidInput, "expected format 'owner/repo'", goerr.V("value", userRepo))
	}
	return parts[0], parts[1], nil
}

// DownloadReleases runs DownloadRelease for each "owner/repo" in userRepos,
// one repository at a time, using template for every other field.
func (d *Downloader) DownloadReleases(ctx context.Context, userRepos []string, template *Request) ([]*Result, error) {
	var all []*Result
	for _, userRepo := range userRepos {
		user, repo, err := ParseUserRepo(userRepo)
		if err != nil {
			return nil, err
		}

		req := *template
		req.User, req.Repo = user, repo
		results, err := d.DownloadRelease(ctx, &req)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to download release", goerr.V("repo", userRepo))
		}
		all = append(all, results...)
	}
	return all, nil
}
