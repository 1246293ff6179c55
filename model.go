package ghrelease

import (
	"time"

	"github.com/google/go-github/v68/github"
)

// Release is a tagged, published version of a repository.
type Release struct {
	ID          int64
	TagName     string
	Name        string
	Draft       bool
	Prerelease  bool
	PublishedAt time.Time
	Assets      []*Asset
}

// Asset is a single downloadable file attached to a Release.
type Asset struct {
	ID                 int64
	Name               string
	URL                string // API URL, serves the raw bytes with Accept: application/octet-stream
	BrowserDownloadURL string
	ContentType        string
	Size               int64
}

// Result describes one asset handled by DownloadRelease.
type Result struct {
	// Path is the absolute destination path of the asset.
	Path    string
	Release *Release
	// Entries lists the extracted archive entries. It is nil when the
	// request left archives zipped.
	Entries []string
	// Skipped is true when Path already existed and nothing was downloaded.
	Skipped bool
}

func newRelease(r *github.RepositoryRelease) *Release {
	release := &Release{
		ID:          r.GetID(),
		TagName:     r.GetTagName(),
		Name:        r.GetName(),
		Draft:       r.GetDraft(),
		Prerelease:  r.GetPrerelease(),
		PublishedAt: r.GetPublishedAt().Time,
		Assets:      make([]*Asset, 0, len(r.Assets)),
	}
	for _, a := range r.Assets {
		release.Assets = append(release.Assets, newAsset(a))
	}
	return release
}

func newAsset(a *github.ReleaseAsset) *Asset {
	return &Asset{
		ID:                 a.GetID(),
		Name:               a.GetName(),
		URL:                a.GetURL(),
		BrowserDownloadURL: a.GetBrowserDownloadURL(),
		ContentType:        a.GetContentType(),
		Size:               int64(a.GetSize()),
	}
}
