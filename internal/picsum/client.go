// Package picsum fetches random placeholder photos from picsum.photos.
package picsum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public picsum endpoint.
const DefaultBaseURL = "https://picsum.photos"

// ErrUnexpectedStatus reports a non-2xx response from the image source.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Photo is a downloaded source image plus the URL it finally resolved to.
// Picsum redirects to a concrete image URL; the final URL is kept for
// attribution text.
type Photo struct {
	Data      []byte
	SourceURL string
}

// Client fetches photos over HTTP, following redirects.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient builds a client for the given base URL (empty = public picsum).
// The timeout bounds the whole request including redirects and body read.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// Fetch downloads a random photo at the requested resolution.
func (c *Client) Fetch(ctx context.Context, width, height int) (*Photo, error) {
	url := fmt.Sprintf("%s/%d/%d", c.baseURL, width, height)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", url, err)
	}

	// resp.Request points at the last request in the redirect chain.
	return &Photo{Data: data, SourceURL: resp.Request.URL.String()}, nil
}
