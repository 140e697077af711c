package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const (
	fetchTimeout = 10 * time.Second
	maxPageBytes = 2 << 20 // 2 MiB is plenty for article HTML
)

// PageMetadata holds what a saved URL tells us about itself.
type PageMetadata struct {
	Title     string
	WordCount int
}

// MetadataFetcher downloads a page and extracts its title and word count
// for manually saved items. Callers treat failure as non-fatal: an item
// saves fine without enrichment.
type MetadataFetcher struct {
	client      *http.Client
	stripPolicy *bluemonday.Policy
}

func NewMetadataFetcher() *MetadataFetcher {
	return &MetadataFetcher{
		client:      &http.Client{Timeout: fetchTimeout},
		stripPolicy: bluemonday.StripTagsPolicy(),
	}
}

// Fetch retrieves rawURL and runs Readability extraction over the
// response body.
func (f *MetadataFetcher) Fetch(ctx context.Context, rawURL string) (*PageMetadata, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create page request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching %s returned status %d", rawURL, resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability extraction failed for %s: %w", rawURL, err)
	}

	title := strings.TrimSpace(f.stripPolicy.Sanitize(article.Title))
	wordCount := len(strings.Fields(article.TextContent))

	return &PageMetadata{Title: title, WordCount: wordCount}, nil
}
