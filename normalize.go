package linkgraph

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// NormalizeURL returns the canonical crawl key for rawURL.
// Only absolute http(s) urls are accepted. Normalizing a normalized url is a no-op.
func NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, rawURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q: unsupported scheme", ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing host", ErrInvalidURL, rawURL)
	}

	u.Host = strings.ToLower(u.Host)
	if port := u.Port(); (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	if u.Path == "" {
		u.Path = "/"
	}

	if u.RawQuery != "" {
		u.RawQuery = normalizeQuery(u.RawQuery)
	}
	u.ForceQuery = false

	return u.String(), nil
}

// normalizeQuery sorts the query by key and value. A query net/url refuses to
// parse, such as one using ';' separators, keeps its raw pairs in sorted order.
func normalizeQuery(rawQuery string) string {
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		var segments []string
		for _, seg := range strings.Split(rawQuery, "&") {
			if seg != "" {
				segments = append(segments, seg)
			}
		}
		sort.Strings(segments)
		return strings.Join(segments, "&")
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		vals := query[k]
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

// Host returns the lowercased host of a url, or "" when it cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
