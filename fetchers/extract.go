package fetchers

import (
	"net/url"
	"path"
	"strings"

	linkgraph "github.com/will-x86/linkgraph"
)

const DefaultLinksPerPage = 20

// rawPage is the unresolved view a backend scrapes from a document.
type rawPage struct {
	Title string     `json:"title"`
	Hrefs []string   `json:"hrefs"`
	Icons []iconLink `json:"icons"`
}

type iconLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Priority order of <link rel> values considered for the favicon.
var iconRels = []string{
	"icon",
	"shortcut icon",
	"apple-touch-icon",
	"apple-touch-icon-precomposed",
	"mask-icon",
}

var skippedExtensions = map[string]bool{
	".pdf": true, ".zip": true, ".gz": true, ".tgz": true, ".tar": true, ".rar": true, ".7z": true, ".bz2": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".webp": true, ".svg": true, ".ico": true, ".tiff": true,
	".mp3": true, ".wav": true, ".ogg": true, ".flac": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".mkv": true, ".webm": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true, ".odt": true,
	".exe": true, ".dmg": true, ".msi": true, ".iso": true, ".apk": true, ".bin": true, ".deb": true, ".rpm": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".css": true, ".js": true, ".json": true, ".xml": true, ".rss": true,
}

func buildPage(base *url.URL, raw rawPage, limit int) *linkgraph.Page {
	return &linkgraph.Page{
		Title:   strings.TrimSpace(raw.Title),
		Links:   filterLinks(base, raw.Hrefs, limit),
		Favicon: resolveFavicon(base, raw.Icons),
	}
}

// filterLinks resolves hrefs against base and keeps at most limit distinct crawlable
// http(s) targets in first-seen order.
func filterLinks(base *url.URL, hrefs []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLinksPerPage
	}

	seen := make(map[string]bool)
	links := make([]string, 0, min(limit, len(hrefs)))

	for _, href := range hrefs {
		if len(links) >= limit {
			break
		}

		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			continue
		}
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") ||
			strings.HasPrefix(lower, "tel:") || strings.HasPrefix(lower, "data:") {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		if skippedExtensions[strings.ToLower(path.Ext(abs.Path))] {
			continue
		}
		abs.Fragment = ""
		abs.RawFragment = ""

		s := abs.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		links = append(links, s)
	}

	return links
}

// resolveFavicon picks the highest priority declared icon, falling back to /favicon.ico
// at the page origin. It returns "" only when base has no host.
func resolveFavicon(base *url.URL, icons []iconLink) string {
	if base == nil || base.Host == "" {
		return ""
	}

	for _, rel := range iconRels {
		for _, icon := range icons {
			if normalizeRel(icon.Rel) != rel {
				continue
			}
			if resolved := resolveIconHref(base, icon.Href); resolved != "" {
				return resolved
			}
		}
	}

	return origin(base) + "/favicon.ico"
}

func resolveIconHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(href), "data:") {
		return href
	}
	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		return origin(base) + href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

func normalizeRel(rel string) string {
	return strings.Join(strings.Fields(strings.ToLower(rel)), " ")
}

func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
