// Package fetch retrieves small documents and installer artifacts over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/NielsdaWheelz/gemkit/internal/fs"
	"github.com/NielsdaWheelz/gemkit/internal/version"
)

// MaxDocumentSize bounds Fetch. License texts are a few KiB.
const MaxDocumentSize = 1 << 20

// Client fetches over HTTP. The zero value uses http.DefaultClient and no
// timeout beyond ctx.
type Client struct {
	HTTP    *http.Client
	Timeout time.Duration // per request; zero means ctx only
}

// New returns a Client with the given per-request timeout.
func New(timeout time.Duration) *Client {
	return &Client{HTTP: &http.Client{}, Timeout: timeout}
}

// Fetch returns the body of url. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(body) > MaxDocumentSize {
		return nil, fmt.Errorf("%s: response larger than %d bytes", url, MaxDocumentSize)
	}
	return body, nil
}

// Download streams url into a new temp file in dir and returns its path.
// On error nothing is left behind. The caller removes the file when done.
// Downloads are bounded by ctx only; installers can be large.
func (c *Client) Download(ctx context.Context, fsys fs.FS, url, dir, pattern string) (path string, err error) {
	if _, err := fs.EnsureDir(fsys, dir, 0755); err != nil {
		return "", err
	}

	resp, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tmp, err := fsys.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	path = tmp.Name()
	defer func() {
		if err != nil {
			_ = fsys.Remove(path)
			path = ""
		}
	}()

	if _, err = io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return path, fmt.Errorf("downloading %s: %w", url, err)
	}
	if err = tmp.Close(); err != nil {
		return path, err
	}
	return path, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "gemkit/"+version.Version)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return resp, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return context.WithCancel(ctx)
}
