package ghrelease_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/dropsite-ai/ghrelease"
	"github.com/m-mizutani/gt"
)

const fileTxt = "hello from the release\n"

// fakeAsset is served by fakeAPI under /repos/{user}/{repo}/releases/assets/{id}.
type fakeAsset struct {
	id       int64
	name     string
	body     []byte
	status   int  // response status, 200 when zero
	redirect bool // answer with 302 to /storage/{id}
}

type fakeRelease struct {
	tag        string
	draft      bool
	prerelease bool
	assets     []*fakeAsset
}

// fakeAPI mimics the parts of the GitHub REST API used by ghrelease.
type fakeAPI struct {
	server     *httptest.Server
	releases   []*fakeRelease
	listStatus int
	pageSize   int

	mu        sync.Mutex
	downloads map[int64]int
	authz     []string
}

func newFakeAPI(t *testing.T, releases ...*fakeRelease) *fakeAPI {
	t.Helper()
	api := &fakeAPI{
		releases:  releases,
		downloads: map[int64]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/{user}/{repo}/releases", api.listReleases)
	mux.HandleFunc("/repos/{user}/{repo}/releases/assets/{id}", api.serveAsset)
	mux.HandleFunc("/storage/{id}", api.serveStorage)

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func (api *fakeAPI) listReleases(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	api.authz = append(api.authz, r.Header.Get("Authorization"))
	api.mu.Unlock()

	if api.listStatus != 0 {
		w.WriteHeader(api.listStatus)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
		return
	}

	releases := api.releases
	if api.pageSize > 0 {
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}
		start := (page - 1) * api.pageSize
		end := min(start+api.pageSize, len(releases))
		if end < len(releases) {
			next := fmt.Sprintf("%s%s?page=%d", api.server.URL, r.URL.Path, page+1)
			w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
		}
		releases = releases[start:end]
	}

	body := make([]map[string]any, 0, len(releases))
	for i, rel := range releases {
		assets := make([]map[string]any, 0, len(rel.assets))
		for _, a := range rel.assets {
			assets = append(assets, map[string]any{
				"id":                   a.id,
				"name":                 a.name,
				"url":                  fmt.Sprintf("%s/repos/%s/%s/releases/assets/%d", api.server.URL, r.PathValue("user"), r.PathValue("repo"), a.id),
				"browser_download_url": api.server.URL + "/download/" + a.name,
				"content_type":         "application/octet-stream",
				"size":                 len(a.body),
			})
		}
		body = append(body, map[string]any{
			"id":           i + 1,
			"tag_name":     rel.tag,
			"name":         rel.tag,
			"draft":        rel.draft,
			"prerelease":   rel.prerelease,
			"published_at": "2024-01-02T03:04:05Z",
			"assets":       assets,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (api *fakeAPI) findAsset(r *http.Request) *fakeAsset {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return nil
	}
	for _, rel := range api.releases {
		for _, a := range rel.assets {
			if a.id == id {
				return a
			}
		}
	}
	return nil
}

func (api *fakeAPI) serveAsset(w http.ResponseWriter, r *http.Request) {
	asset := api.findAsset(r)
	if asset == nil {
		http.NotFound(w, r)
		return
	}
	if !strings.Contains(r.Header.Get("Accept"), "application/octet-stream") {
		http.Error(w, "expected octet-stream", http.StatusBadRequest)
		return
	}
	if asset.redirect {
		http.Redirect(w, r, fmt.Sprintf("%s/storage/%d", api.server.URL, asset.id), http.StatusFound)
		return
	}
	api.writeAsset(w, asset)
}

func (api *fakeAPI) serveStorage(w http.ResponseWriter, r *http.Request) {
	asset := api.findAsset(r)
	if asset == nil {
		http.NotFound(w, r)
		return
	}
	api.writeAsset(w, asset)
}

func (api *fakeAPI) writeAsset(w http.ResponseWriter, asset *fakeAsset) {
	api.mu.Lock()
	api.downloads[asset.id]++
	api.mu.Unlock()

	if asset.status != 0 && asset.status != http.StatusOK {
		w.WriteHeader(asset.status)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(asset.body)))
	_, _ = w.Write(asset.body)
}

func (api *fakeAPI) downloadCount(id int64) int {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.downloads[id]
}

func (api *fakeAPI) authHeaders() []string {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]string(nil), api.authz...)
}

func (api *fakeAPI) downloader(t *testing.T, opts ...ghrelease.Option) *ghrelease.Downloader {
	return api.downloaderWithToken(t, "", opts...)
}

func (api *fakeAPI) downloaderWithToken(t *testing.T, token string, opts ...ghrelease.Option) *ghrelease.Downloader {
	t.Helper()
	opts = append([]ghrelease.Option{ghrelease.WithBaseURL(api.server.URL)}, opts...)
	d, err := ghrelease.New(token, opts...)
	gt.NoError(t, err)
	return d
}

type zipEntry struct {
	name string
	body string
}

func makeZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		gt.NoError(t, err)
		if !strings.HasSuffix(e.name, "/") {
			_, err = w.Write([]byte(e.body))
			gt.NoError(t, err)
		}
	}
	gt.NoError(t, zw.Close())
	return buf.Bytes()
}

// recordingProgress keeps every percentage reported per asset.
type recordingProgress struct {
	mu    sync.Mutex
	calls map[string][]float64
}

func newRecordingProgress() *recordingProgress {
	return &recordingProgress{calls: map[string][]float64{}}
}

func (p *recordingProgress) Track(asset *ghrelease.Asset) ghrelease.ProgressFunc {
	return func(percent float64) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.calls[asset.Name] = append(p.calls[asset.Name], percent)
	}
}

func (p *recordingProgress) reported(name string) []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.calls[name]...)
}
