// Package imageproxy validates, rewrites and fetches externally hosted product
// images so they can be re-served from this origin.
package imageproxy

import (
	"net/url"
	"strings"
)

// DirectContentHost serves raw file bytes for Dropbox shared links.
const DirectContentHost = "dl.dropboxusercontent.com"

// trustedDomains are the registrable domains images may be fetched from.
var trustedDomains = []string{
	"dropbox.com",
	"dropboxusercontent.com",
}

// IsTrustedHost reports whether host is a trusted domain or a subdomain of
// one. The match is anchored on a label boundary, so "evil-dropbox.com" and
// "dropbox.com.evil.net" are rejected.
func IsTrustedHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, domain := range trustedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// DirectURL validates raw and returns the URL to fetch: the host is switched
// to the direct content host, the forced download parameter "dl" is dropped
// and "raw=1" is set so the file renders inline. ok is false when raw is not
// an absolute http(s) URL on a trusted host.
func DirectURL(raw string) (direct *url.URL, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if u.User != nil {
		return nil, false
	}
	if !IsTrustedHost(u.Hostname()) {
		return nil, false
	}

	q := u.Query()
	q.Del("dl")
	q.Set("raw", "1")

	u.Scheme = "https"
	u.Host = DirectContentHost
	u.RawQuery = q.Encode()
	u.Fragment = ""

	return u, true
}
