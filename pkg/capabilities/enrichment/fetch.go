package enrichment

import (
	"context"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// Fetcher performs a static (non-JS) HTTP GET, used by the idox and
// known-custom extraction strategies.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// httpFetcher is the production Fetcher, retrying transient failures
// via retryablehttp (grounded on the teacher pack's preference for a
// resilient HTTP client over a bare http.Client for outbound calls to
// third-party services).
type httpFetcher struct {
	client *retryablehttp.Client
}

// NewHTTPFetcher builds a Fetcher with 3 retries and a quiet logger
// (retryablehttp logs to stderr by default, which would be noisy for a
// library-internal dependency).
func NewHTTPFetcher() Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return &httpFetcher{client: client}
}

func (f *httpFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
