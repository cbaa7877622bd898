package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/JohnDeved/rahash/internal/catalog"
)

const userAgent = "rahash/1.0"

// Client handles HTTP requests to archive.org.
type Client struct {
	listHTTP  *http.Client // Short timeout for directory listings
	fetchHTTP *http.Client // Catalog downloads, bounded by context
	limiter   *rate.Limiter
	// RetryDelay is multiplied by the attempt number between catalog fetches.
	RetryDelay time.Duration
}

// New creates a new archive client.
func New(reqPerSec float64) *Client {
	if reqPerSec <= 0 {
		reqPerSec = 5.0
	}

	return &Client{
		listHTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
		// The catalog is tens of megabytes; http.Client.Timeout covers the
		// body read, so leave it to the caller's context.
		fetchHTTP:  &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(reqPerSec), 5),
		RetryDelay: time.Second,
	}
}

func (c *Client) get(ctx context.Context, hc *http.Client, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}
	return resp, nil
}

// StatusError is a non-200 response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.Code, e.URL)
}

// ListDirectory fetches and parses an archive.org directory listing.
func (c *Client) ListDirectory(ctx context.Context, dirURL string) ([]Entry, error) {
	if !strings.HasSuffix(dirURL, "/") {
		dirURL += "/"
	}

	resp, err := c.get(ctx, c.listHTTP, dirURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return parseDirectoryListing(resp.Body, dirURL)
}

// FetchCatalog downloads the catalog document at catalogURL, trying up to
// attempts times. A body that does not parse as a catalog counts as a failed
// attempt. The raw bytes are returned alongside the parsed catalog so the
// caller can store them.
func (c *Client) FetchCatalog(ctx context.Context, catalogURL string, attempts int) ([]byte, *catalog.Catalog, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		log.Info().
			Int("attempt", attempt).
			Int("max", attempts).
			Str("url", catalogURL).
			Msg("downloading catalog")

		data, cat, err := c.fetchCatalogOnce(ctx, catalogURL)
		if err == nil {
			return data, cat, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("catalog download failed")

		if attempt < attempts && c.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(c.RetryDelay * time.Duration(attempt)):
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: %w", catalog.ErrCatalogUnavailable, lastErr)
}

func (c *Client) fetchCatalogOnce(ctx context.Context, catalogURL string) ([]byte, *catalog.Catalog, error) {
	resp, err := c.get(ctx, c.fetchHTTP, catalogURL)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading catalog: %w", err)
	}
	cat, err := catalog.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return data, cat, nil
}
