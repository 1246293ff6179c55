// Package unzip expands zip archives into a directory.
package unzip

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Extract writes every entry of the zip archive src below dir and returns the
// entry names in archive order. Entries that would land outside dir are
// rejected.
func Extract(ctx context.Context, src, dir string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open zip archive", goerr.V("src", src))
	}
	defer r.Close()

	entries := make([]string, 0, len(r.File))
	for _, file := range r.File {
		if err := ctx.Err(); err != nil {
			return entries, goerr.Wrap(err, "extraction interrupted", goerr.V("src", src))
		}
		if err := extractFile(file, dir); err != nil {
			return entries, goerr.Wrap(err, "failed to extract entry",
				goerr.V("src", src),
				goerr.V("entry", file.Name),
			)
		}
		entries = append(entries, file.Name)
	}

	return entries, nil
}

func extractFile(file *zip.File, dir string) error {
	destPath := filepath.Join(dir, file.Name)
	if !strings.HasPrefix(destPath, filepath.Clean(dir)+string(os.PathSeparator)) {
		return goerr.New("entry escapes destination directory",
			goerr.V("entry", file.Name),
			goerr.V("dest", destPath),
		)
	}

	info := file.FileInfo()
	if info.IsDir() {
		return os.MkdirAll(destPath, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return goerr.Wrap(err, "failed to create parent directory", goerr.V("dir", filepath.Dir(destPath)))
	}

	rc, err := file.Open()
	if err != nil {
		return goerr.Wrap(err, "failed to open entry")
	}
	defer rc.Close()

	mode := info.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return goerr.Wrap(err, "failed to create file", goerr.V("path", destPath))
	}

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return goerr.Wrap(err, "failed to write file", goerr.V("path", destPath))
	}
	return out.Close()
}
