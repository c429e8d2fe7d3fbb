package crawler

import (
	"net/url"
	"strings"
)

// normalizeURL canonicalizes a URL for deduplication: the fragment is
// stripped and a trailing slash on the path is removed, so
// "https://x.com/a#frag", "https://x.com/a/" and "https://x.com/a" all
// collapse to the same key.
func normalizeURL(u *url.URL) string {
	clone := *u
	clone.Fragment = ""
	clone.RawFragment = ""
	clone.Path = strings.TrimSuffix(clone.Path, "/")
	clone.Host = strings.ToLower(clone.Host)
	return clone.String()
}

// NormalizeURL parses and canonicalizes a raw URL string.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return normalizeURL(u), nil
}

// resolveLink resolves an href against the page it appeared on and reports
// whether it is crawlable (http/https only).
func resolveLink(page *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return nil, false
	}
	u, err := page.Parse(href)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

// isInternal classifies a link by hostname equality with the seed.
func isInternal(seed, u *url.URL) bool {
	return strings.EqualFold(seed.Hostname(), u.Hostname())
}
