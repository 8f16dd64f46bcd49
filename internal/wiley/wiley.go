// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wiley fetches article PDFs from the Wiley content server.
package wiley

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dspace-tools/wiley-deposits/internal/httputil"
	"github.com/dspace-tools/wiley-deposits/pkg/types"
)

// ErrInvalidContent is returned when the content server responds with
// something other than a PDF, typically an HTML access-denied page.
var ErrInvalidContent = errors.New("article content is not a PDF")

// browserUserAgent is sent when cfg.UserAgent is empty. The Wiley server
// rejects requests that do not look like a browser.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/70.0.3538.77 Safari/537.36"

// maxContentBytes bounds how much of a response is read into memory.
const maxContentBytes = 512 << 20

// Client fetches article PDFs for DOIs.
type Client struct {
	httpClient *http.Client
	cfg        types.WileyConfig
}

// NewClient returns a Client configured for the content endpoint in cfg.
func NewClient(cfg types.WileyConfig) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = browserUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

// Fetch retrieves the PDF for doi. It returns ErrInvalidContent when the
// response is not served as a PDF.
func (c *Client) Fetch(ctx context.Context, doi string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ContentURL+doi, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(c.httpClient, req, 0)
	if err != nil {
		return nil, fmt.Errorf("wiley request for %s: %w", doi, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wiley server returned HTTP %d for %s", resp.StatusCode, doi)
	}

	contentType := resp.Header.Get("Content-Type")
	if !IsPDF(contentType) {
		return nil, fmt.Errorf("%s served %q: %w", doi, contentType, ErrInvalidContent)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return nil, fmt.Errorf("reading content for %s: %w", doi, err)
	}
	return content, nil
}

// IsPDF reports whether a Content-Type header value denotes a PDF,
// ignoring parameters such as charset.
func IsPDF(contentType string) bool {
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	return strings.EqualFold(mediaType, "application/pdf")
}
