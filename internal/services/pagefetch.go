package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const (
	// maxBodySize caps fetched HTML to protect against untrusted URLs.
	maxBodySize = 10 * 1024 * 1024

	fetchTimeout = 30 * time.Second

	// Some sites block requests without a browser-looking User-Agent.
	fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// PageFetcher downloads a page and extracts its readable text content.
type PageFetcher struct {
	client *http.Client
}

// NewPageFetcher creates a page fetcher with a default HTTP client.
func NewPageFetcher() *PageFetcher {
	return &PageFetcher{client: &http.Client{Timeout: fetchTimeout}}
}

// NewPageFetcherWithClient creates a page fetcher with a custom client.
func NewPageFetcherWithClient(client *http.Client) *PageFetcher {
	return &PageFetcher{client: client}
}

// FetchText fetches the URL and returns the article text extracted from
// its HTML, stripped of navigation and boilerplate.
func (f *PageFetcher) FetchText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}
	if int64(len(body)) >= maxBodySize {
		return "", fmt.Errorf("page body exceeds %d byte limit", maxBodySize)
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", fmt.Errorf("failed to extract article: %w", err)
	}

	return article.TextContent, nil
}
