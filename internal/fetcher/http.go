// Package fetcher retrieves registry source data over HTTP, FTP, and local
// CSV/XLSX files.
package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/registry-etl/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Retry             resilience.Policy
	MaxBodyBytes      int64
}

// HTTPFetcher wraps net/http with a shared rate limiter and transient-error
// retry. One fetcher instance is shared by the extraction and enrichment
// paths so the crawl budget is enforced globally.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    HTTPOptions
	log     *zap.Logger
}

// NewHTTPFetcher builds an HTTPFetcher with defaults for missing options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "registry-etl/1.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 4
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		opts:    opts,
		log:     zap.L().With(zap.String("component", "http_fetcher")),
	}
}

// Get fetches a URL and returns its body. Transient statuses and network
// failures are retried under the configured policy.
func (f *HTTPFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	return resilience.Retry(ctx, f.opts.Retry, "http get", func(ctx context.Context) ([]byte, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limit wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: build request %s", url)
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: get %s", url)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resilience.RetryableStatus(resp.StatusCode) {
			return nil, resilience.MarkTransient(
				eris.Errorf("fetcher: http %d from %s", resp.StatusCode, url),
				resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("fetcher: http %d from %s", resp.StatusCode, url)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: read body %s", url)
		}
		return body, nil
	})
}

// GetJSON fetches a URL and decodes its JSON body into out.
func (f *HTTPFetcher) GetJSON(ctx context.Context, url string, out any) error {
	body, err := f.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "fetcher: decode json from %s", url)
	}
	return nil
}

// Head probes a URL. A nil return means the URL answered with a non-error
// status.
func (f *HTTPFetcher) Head(ctx context.Context, url string) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "fetcher: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return eris.Wrapf(err, "fetcher: build head request %s", url)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "fetcher: head %s", url)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("fetcher: head %s: http %d", url, resp.StatusCode)
	}
	return nil
}
