package unzip_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dropsite-ai/ghrelease/internal/unzip"
	"github.com/m-mizutani/gt"
)

func writeZip(t *testing.T, entries map[string]string, order []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	gt.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, name := range order {
		w, err := zw.Create(name)
		gt.NoError(t, err)
		if body, ok := entries[name]; ok {
			_, err = w.Write([]byte(body))
			gt.NoError(t, err)
		}
	}
	gt.NoError(t, zw.Close())
	return path
}

func TestExtract(t *testing.T) {
	src := writeZip(t,
		map[string]string{
			"bin/tool":  "#!/bin/sh\necho hi\n",
			"README.md": "# Tool",
		},
		[]string{"bin/", "bin/tool", "README.md"},
	)
	dir := t.TempDir()

	entries, err := unzip.Extract(context.Background(), src, dir)
	gt.NoError(t, err)
	gt.Value(t, entries).Equal([]string{"bin/", "bin/tool", "README.md"})

	content, err := os.ReadFile(filepath.Join(dir, "bin", "tool"))
	gt.NoError(t, err)
	gt.Value(t, string(content)).Equal("#!/bin/sh\necho hi\n")

	content, err = os.ReadFile(filepath.Join(dir, "README.md"))
	gt.NoError(t, err)
	gt.Value(t, string(content)).Equal("# Tool")
}

func TestExtract_NestedWithoutDirectoryEntries(t *testing.T) {
	src := writeZip(t, map[string]string{"a/b/c.txt": "deep"}, []string{"a/b/c.txt"})
	dir := t.TempDir()

	entries, err := unzip.Extract(context.Background(), src, dir)
	gt.NoError(t, err)
	gt.Value(t, entries).Equal([]string{"a/b/c.txt"})

	content, err := os.ReadFile(filepath.Join(dir, "a", "b", "c.txt"))
	gt.NoError(t, err)
	gt.Value(t, string(content)).Equal("deep")
}

func TestExtract_RejectsPathTraversal(t *testing.T) {
	src := writeZip(t, map[string]string{"../evil.txt": "nope"}, []string{"../evil.txt"})
	parent := t.TempDir()
	dir := filepath.Join(parent, "out")
	gt.NoError(t, os.Mkdir(dir, 0o755))

	_, err := unzip.Extract(context.Background(), src, dir)
	gt.Error(t, err)

	_, statErr := os.Stat(filepath.Join(parent, "evil.txt"))
	gt.True(t, os.IsNotExist(statErr))
}

func TestExtract_NotAZip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "fake.zip")
	gt.NoError(t, os.WriteFile(src, []byte("plain text"), 0o644))

	_, err := unzip.Extract(context.Background(), src, t.TempDir())
	gt.Error(t, err)
}

func TestExtract_CancelledContext(t *testing.T) {
	src := writeZip(t, map[string]string{"a.txt": "a"}, []string{"a.txt"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries, err := unzip.Extract(ctx, src, t.TempDir())
	gt.Error(t, err)
	gt.Value(t, len(entries)).Equal(0)
}
