package engine

import (
	"context"
	"net/http"
	"time"

	"sjsage522/alkotekaworker/helpers"
)

// Fetcher retrieves the body behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches JSON documents with browser-like headers
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: helpers.NewClient(timeout)}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return helpers.FetchJSON(ctx, f.client, url)
}
