// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crossref fetches bibliographic work records from the Crossref
// works API.
package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dspace-tools/wiley-deposits/internal/httputil"
	"github.com/dspace-tools/wiley-deposits/pkg/types"
)

// ErrInsufficientMetadata is returned when a work record lacks the
// fields a deposit minimally requires: a title and a canonical URL.
var ErrInsufficientMetadata = errors.New("insufficient metadata for deposit")

// Client fetches work records for DOIs.
type Client struct {
	httpClient *http.Client
	cfg        types.CrossrefConfig
}

// NewClient returns a Client configured for the works API endpoint in cfg.
func NewClient(cfg types.CrossrefConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

// Fetch retrieves the work record for doi. It returns
// ErrInsufficientMetadata when the record exists but cannot support a
// deposit.
func (c *Client) Fetch(ctx context.Context, doi string) (*types.Work, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.MetadataURL+doi, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.Mailto != "" {
		// Crossref routes identified callers to its polite pool.
		q := url.Values{"mailto": {c.cfg.Mailto}}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := httputil.DoWithRetry(c.httpClient, req, 0)
	if err != nil {
		return nil, fmt.Errorf("crossref request for %s: %w", doi, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crossref returned HTTP %d for %s", resp.StatusCode, doi)
	}

	var work types.Work
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return nil, fmt.Errorf("parsing crossref response for %s: %w", doi, err)
	}

	if err := ValidateWork(&work); err != nil {
		return nil, fmt.Errorf("%s: %w", doi, err)
	}
	return &work, nil
}

// ValidateWork checks that a work record carries the fields required to
// build a deposit: at least one non-empty title and a canonical URL.
func ValidateWork(work *types.Work) error {
	if work == nil {
		return ErrInsufficientMetadata
	}
	hasTitle := false
	for _, t := range work.Message.Title {
		if t != "" {
			hasTitle = true
			break
		}
	}
	if !hasTitle {
		return fmt.Errorf("missing title: %w", ErrInsufficientMetadata)
	}
	if work.Message.URL == "" {
		return fmt.Errorf("missing URL: %w", ErrInsufficientMetadata)
	}
	return nil
}
