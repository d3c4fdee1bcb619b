// Package source provides content extraction from the configured news
// sources. It defines a common Source interface and implements concrete
// adapters for structured RSS feed documents and Silicon Investor forum
// pages.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seenimoa/stonksfeed/pkg/models"
)

// Source is the capability interface every adapter implements. The
// pipeline holds a configured list of Source values; it never knows which
// concrete adapter produced a record.
type Source interface {
	// Name returns a human-readable identifier for logging and summaries.
	Name() string

	// Fetch retrieves the source document(s) and returns the canonical
	// articles found. Item-level problems are skipped; only source-level
	// failures (network, non-2xx status) return an error.
	Fetch(ctx context.Context) ([]models.Article, error)
}

// FetchError wraps a source-level failure: the whole fetch for one source
// failed. It is non-fatal to the pipeline, fatal to that source's run.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// DefaultUserAgent is the user agent string used for HTTP requests. Some
// feed hosts reject requests with a default Go user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// httpClient is the shared client for index-page and feed fetches.
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// detailClient uses a shorter timeout so one slow post page cannot stall a
// whole forum scrape.
var detailClient = &http.Client{
	Timeout: 15 * time.Second,
}

// fetchBody performs a GET request and returns the full response body.
// A non-2xx status is returned as *ErrHTTP.
func fetchBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/xml, text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return io.ReadAll(resp.Body)
}
