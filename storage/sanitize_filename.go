// Adapted from https://github.com/subosito/gozaru
package storage

import (
	"regexp"
	"strings"
)

const fallbackFilename = "file"

var (
	characterFilter   = regexp.MustCompile(`[\x00-\x1F\/\\:\*\?\"<>\|]`)
	unicodeWhitespace = regexp.MustCompile(`[[:space:]]+`)
)

// sanitize turns an arbitrary key into a single safe path segment of at most 255-n bytes.
func sanitize(s string, n int, fallback string) string {
	if fallback == "" {
		fallback = fallbackFilename
	}

	sc := clean(s, fallback)
	nc := len(sc)

	if n > nc {
		return sc
	}
	if nc > 255 {
		nc = 255
	}
	if n != 0 {
		nc -= n
	}

	return sc[0:nc]
}

func clean(s string, fallback string) string {
	sc := strings.TrimSpace(unicodeWhitespace.ReplaceAllString(s, " "))
	sc = strings.TrimSpace(characterFilter.ReplaceAllString(sc, "_"))
	sc = strings.TrimSpace(unicodeWhitespace.ReplaceAllString(sc, " "))

	if sc == "" {
		return fallback
	}
	if strings.HasPrefix(sc, ".") {
		return fallback + sc
	}
	return sc
}
