package lookup

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/affimark/verifier/internal/model"
)

// ProductSource fetches scraped product data for a listing URL.
type ProductSource interface {
	Scrape(ctx context.Context, productURL string) (*model.ScrapedProductData, error)
}

// HTTPProductSource scrapes via an external scraper service, falling
// back from the primary endpoint to a secondary one. A failed scrape is
// the one lookup failure that fails the whole analysis.
type HTTPProductSource struct {
	client      *Client
	primaryURL  string
	fallbackURL string
}

// NewHTTPProductSource creates a product source. fallbackURL may be
// empty, in which case only the primary endpoint is tried.
func NewHTTPProductSource(client *Client, primaryURL, fallbackURL string) *HTTPProductSource {
	return &HTTPProductSource{client: client, primaryURL: primaryURL, fallbackURL: fallbackURL}
}

func (s *HTTPProductSource) Scrape(ctx context.Context, productURL string) (*model.ScrapedProductData, error) {
	attempts := []Attempt[model.ScrapedProductData]{
		{Name: "primary", Fn: s.fetchFrom(s.primaryURL, productURL)},
	}
	if s.fallbackURL != "" {
		attempts = append(attempts, Attempt[model.ScrapedProductData]{
			Name: "fallback", Fn: s.fetchFrom(s.fallbackURL, productURL),
		})
	}

	product, err := FirstSuccess(ctx, "product scrape", attempts)
	if err != nil {
		return nil, err
	}
	if product.URL == "" {
		product.URL = productURL
	}
	return product, nil
}

func (s *HTTPProductSource) fetchFrom(endpoint, productURL string) func(ctx context.Context) (*model.ScrapedProductData, error) {
	return func(ctx context.Context) (*model.ScrapedProductData, error) {
		reqURL := endpoint + "?url=" + url.QueryEscape(productURL)
		var product model.ScrapedProductData
		if err := s.client.GetJSON(ctx, reqURL, &product); err != nil {
			return nil, err
		}
		return &product, nil
	}
}

// NormalizeURL canonicalizes a product URL for dedup and storage:
// lowercased scheme and host, tracking parameters removed, fragment
// dropped, remaining query keys sorted.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", eris.Wrap(err, "lookup: parse url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", eris.Errorf("lookup: unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", eris.New("lookup: url missing host")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		if isTrackingParam(key) {
			q.Del(key)
		}
	}
	u.RawQuery = sortedQuery(q)

	return u.String(), nil
}

var trackingParams = map[string]bool{
	"fbclid":   true,
	"gclid":    true,
	"msclkid":  true,
	"ref":      true,
	"referrer": true,
	"tag":      true,
}

func isTrackingParam(key string) bool {
	return trackingParams[key] || strings.HasPrefix(key, "utm_")
}

func sortedQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
