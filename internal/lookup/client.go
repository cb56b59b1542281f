package lookup

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientOptions configures the shared HTTP lookup client.
type ClientOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	DefaultRate  rate.Limit
	DefaultBurst int
	// RatePerHost overrides the default request rate for specific hosts.
	RatePerHost map[string]*rate.Limiter
}

// Client is a rate-limited JSON HTTP client shared by all lookup
// sources. Retries on 429 and 5xx with jittered exponential backoff.
type Client struct {
	client   *http.Client
	opts     ClientOptions
	limiters map[string]*rate.Limiter
	fallback *rate.Limiter
}

// NewClient creates a lookup client with the given options.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "verifier/1.0"
	}
	if opts.DefaultRate == 0 {
		opts.DefaultRate = 10
	}
	if opts.DefaultBurst == 0 {
		opts.DefaultBurst = 10
	}
	limiters := make(map[string]*rate.Limiter)
	for k, v := range opts.RatePerHost {
		limiters[k] = v
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts:     opts,
		limiters: limiters,
		fallback: rate.NewLimiter(opts.DefaultRate, opts.DefaultBurst),
	}
}

func (c *Client) limiterFor(rawURL string) *rate.Limiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return c.fallback
	}
	if lim, ok := c.limiters[u.Host]; ok {
		return lim
	}
	return c.fallback
}

// GetJSON fetches rawURL and unmarshals the response body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "lookup: build request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("lookup: http %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return eris.Wrap(err, "lookup: read body")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "lookup: decode response from %s", rawURL)
	}
	return nil
}

func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	lim := c.limiterFor(req.URL.String())

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "lookup: rate limiter wait")
		}

		cloned := req.Clone(ctx)
		resp, err := c.client.Do(cloned)
		if err != nil {
			lastErr = err
			zap.L().Warn("lookup: request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("lookup: http %d from %s", resp.StatusCode, req.URL.String())
			zap.L().Warn("lookup: retryable status, backing off",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		return resp, nil
	}

	return nil, eris.Wrapf(lastErr, "lookup: all %d attempts failed for %s", c.opts.MaxRetries, req.URL.String())
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	base := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	jitter := time.Duration(rand.Int63n(int64(time.Second)))
	select {
	case <-time.After(base + jitter):
	case <-ctx.Done():
	}
}
