// Package fetch downloads remote resources (slide images, episode audio)
// outside the browser.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client fetches resources over plain HTTP.
type Client struct {
	client    *http.Client
	userAgent string
}

// New creates a Client that sends userAgent, normally the browser's, with
// every request. Audio files can be large, so the overall timeout is generous.
func New(userAgent string) *Client {
	return &Client{
		client:    &http.Client{Timeout: 30 * time.Minute},
		userAgent: userAgent,
	}
}

// Download opens the resource at url. The caller must close the body.
func (c *Client) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, url)
	}
	return resp.Body, nil
}

// SaveAs streams the resource at url into path. A partially written file is
// removed on failure.
func (c *Client) SaveAs(ctx context.Context, url, path string) (int64, error) {
	body, err := c.Download(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return n, nil
}
