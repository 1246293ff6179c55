package ghrelease

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Option configures a Downloader.
type Option func(*config) error

type config struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	progress   Progress
}

// WithBaseURL points the Downloader at another API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(rawURL string) Option {
	return func(c *config) error {
		if !strings.HasSuffix(rawURL, "/") {
			rawURL += "/"
		}
		if _, err := url.Parse(rawURL); err != nil {
			return goerr.Wrap(err, "invalid base URL", goerr.V("url", rawURL))
		}
		c.baseURL = rawURL
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for API calls and asset downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		c.httpClient = client
		return nil
	}
}

// WithLogger sets the logger used for progress lines. A nil logger keeps
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithProgress sets the per-asset progress reporter. Without it, a terminal
// progress bar is drawn on stderr when stderr is a terminal.
func WithProgress(progress Progress) Option {
	return func(c *config) error {
		c.progress = progress
		return nil
	}
}
