package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/k0take/onioncrawl/internal/model"
)

// defaultRetryBackoff is the base wait before the first retry; each
// subsequent retry doubles it. Tor circuit failures are often transient,
// so a short first backoff recovers quickly without hammering.
const defaultRetryBackoff = 2 * time.Second

// FetchResult is the outcome of one successful HTTP exchange.
// "Successful" means a response arrived; the status code may still be an
// HTTP error.
type FetchResult struct {
	// StatusCode is the HTTP response status.
	StatusCode int

	// Headers are the response headers.
	Headers http.Header

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, capped at the configured size limit.
	Body []byte
}

// Fetcher issues a single page fetch. Implementations own the retry and
// timeout policy for one request; callers see either a response or a
// final error with the number of retries spent.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (result *FetchResult, retries int, err error)
}

// HTTPFetcher fetches pages over an HTTP client routed through the Tor
// proxy. Retry policy is centralized here rather than scattered at call
// sites: transport errors are retried with exponential backoff up to the
// configured budget, HTTP error statuses are returned as-is for the
// caller to classify.
type HTTPFetcher struct {
	// client performs the requests. Must be pre-configured with the
	// SOCKS5 proxy and a per-request timeout.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize caps how much of a response body is read.
	maxBodySize int64

	// maxRetries is how many additional attempts follow a failed one.
	maxRetries int

	// backoff is the wait before the first retry; doubled per retry.
	backoff time.Duration
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps the response body size read per page.
func WithMaxBodySize(size int64) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithRetries sets the retry budget for transport errors.
func WithRetries(n int) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the base backoff between retries.
func WithRetryBackoff(d time.Duration) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.backoff = d
		}
	}
}

// NewHTTPFetcher creates a fetcher over the given client.
// The client is injected because proxy configuration belongs to the tor
// package and tests want to substitute httptest clients.
func NewHTTPFetcher(client *http.Client, opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		userAgent:   "onioncrawl",
		maxBodySize: model.MaxBodySize,
		maxRetries:  2,
		backoff:     defaultRetryBackoff,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs the request, retrying transport errors up to the
// budget. The returned retries count includes only attempts actually
// retried, whether or not the fetch eventually succeeded.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, int, error) {
	var lastErr error
	retries := 0

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			retries++

			// Exponential backoff: backoff, 2*backoff, 4*backoff, ...
			wait := f.backoff << (attempt - 1)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, retries, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			return result, retries, nil
		}
		lastErr = err

		// Cancellation is not a transport hiccup; stop immediately.
		if ctx.Err() != nil {
			return nil, retries, ctx.Err()
		}
	}

	return nil, retries, fmt.Errorf("fetch %s: %w", pageURL, lastErr)
}

// fetchOnce performs a single attempt.
func (f *HTTPFetcher) fetchOnce(ctx context.Context, pageURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
