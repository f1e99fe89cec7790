// Package urlresolver follows directory redirect links (futuretools.link
// and friends) to the tool's real website before normalization.
package urlresolver

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/tool-ingestor/internal/logger"
)

// redirectorHosts are link-shortener/redirect domains directory sites
// hand out instead of the tool's own URL.
var redirectorHosts = []string{
	"futuretools.link",
	"bit.ly",
	"tinyurl.com",
}

const defaultTimeout = 15 * time.Second

// userAgent mirrors a desktop browser; some redirectors refuse unknown
// clients.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// IsRedirector reports whether the URL's host is a known redirect domain.
func IsRedirector(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, r := range redirectorHosts {
		if host == r || strings.HasSuffix(host, "."+r) {
			return true
		}
	}
	return false
}

// Resolver resolves redirect links by following the HTTP redirect chain.
type Resolver struct {
	client *http.Client
	logger logger.Logger
}

// New creates a resolver with the given request timeout.
func New(timeout time.Duration, log logger.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Resolver{
		client: &http.Client{Timeout: timeout},
		logger: log,
	}
}

// Resolve follows redirects from rawURL and returns the final URL. Any
// failure falls back to the input; resolution is an enrichment, never a
// gate.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("Redirect resolution failed",
			logger.String("url", rawURL),
			logger.Error(err),
		)
		return rawURL
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	if final == "" || !strings.HasPrefix(final, "http") {
		return rawURL
	}
	if final != rawURL {
		r.logger.Debug("Resolved redirect",
			logger.String("from", rawURL),
			logger.String("to", final),
		)
	}
	return final
}
