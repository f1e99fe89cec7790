package normalizer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL marks a record whose website URL does not parse as an
// absolute HTTP(S) URL. Such records are rejected before deduplication.
var ErrInvalidURL = errors.New("invalid website url")

// CanonicalizeURL reduces a URL to its canonical form: scheme and host
// lower-cased, default ports removed, trailing slash stripped, utm_*
// tracking parameters dropped, fragment dropped. The result is a fixed
// point: canonicalizing twice yields the same string.
func CanonicalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	host := strings.ToLower(u.Host)
	switch scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}

	path := strings.TrimSuffix(u.Path, "/")

	query := u.Query()
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			query.Del(key)
		}
	}

	canonical := scheme + "://" + host + path
	if encoded := query.Encode(); encoded != "" {
		canonical += "?" + encoded
	}
	return canonical, nil
}
