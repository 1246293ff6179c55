package ghrelease

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// DownloadAsset streams the bytes of asset into w. progress, when not nil,
// receives the completed percentage and always sees 100 on success.
func (d *Downloader) DownloadAsset(ctx context.Context, user, repo string, asset *Asset, w io.Writer, progress ProgressFunc) error {
	rc, _, err := d.client.Repositories.DownloadReleaseAsset(ctx, user, repo, asset.ID, d.httpClient)
	if err != nil {
		return wrapAPIError(err, "failed to download asset",
			goerr.V("asset", asset.Name),
			goerr.V("url", asset.URL),
		)
	}
	defer rc.Close()

	if progress == nil {
		progress = func(float64) {}
	}
	pw := newProgressWriter(asset.Size, progress)

	if _, err := io.Copy(io.MultiWriter(w, pw), rc); err != nil {
		return goerr.Wrap(ErrNetwork, "failed to stream asset",
			goerr.V("asset", asset.Name),
			goerr.V("cause", err.Error()),
		)
	}
	pw.finish()

	return nil
}

// CreateTemp opens files as 0600; downloaded assets get the usual mode.
const assetFileMode = 0o644

// downloadToFile writes asset to dest through a temporary file in the same
// directory, so dest only ever appears complete.
func (d *Downloader) downloadToFile(ctx context.Context, user, repo string, asset *Asset, dest string, progress ProgressFunc) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".ghrelease-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V("dest", dest))
	}
	tmpName := tmp.Name()

	// No-op once the rename succeeded.
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := d.DownloadAsset(ctx, user, repo, asset, tmp, progress); err != nil {
		return err
	}

	if err := tmp.Chmod(assetFileMode); err != nil {
		return goerr.Wrap(err, "failed to set file mode", goerr.V("path", tmpName))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("path", tmpName))
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return goerr.Wrap(err, "failed to move asset into place",
			goerr.V("from", tmpName),
			goerr.V("to", dest),
		)
	}
	return nil
}
