package imageproxy

import (
	"net/url"
	"regexp"
	"strings"
)

// RelayPath is the route that serves relayed images.
const RelayPath = "/img"

var imageExtPattern = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|webp|bmp|svg)(\?|#|$)`)

// LooksLikeImage reports whether s is an http(s) URL that points at an image
// file or a Dropbox share.
func LooksLikeImage(s string) bool {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	if imageExtPattern.MatchString(s) {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && IsTrustedHost(u.Hostname())
}

// RelayURL returns the local relay URL for an image reference.
func RelayURL(raw string) string {
	return RelayPath + "?url=" + url.QueryEscape(strings.TrimSpace(raw))
}
