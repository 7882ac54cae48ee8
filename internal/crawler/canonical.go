package crawler

import (
	"net/url"
	"strings"
)

// CanonicalURL normalizes a URL for deduplication: lowercase scheme and
// host, fragment stripped, empty path treated as "/". Query strings are
// preserved since they usually select different content.
//
// Returns the input unchanged when it cannot be parsed; an unparseable
// URL still deduplicates against itself.
func CanonicalURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// http://example.onion and http://example.onion/ are the same page.
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// URLDomain returns the lowercase host of a URL, or "" if unparseable.
func URLDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// skipExtensions lists resource suffixes that are never worth a fetch
// budget: binary assets whose bodies the crawler would not parse anyway.
var skipExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".ico",
	".css", ".js", ".woff", ".woff2", ".ttf",
	".zip", ".tar", ".gz", ".rar", ".7z",
	".mp3", ".mp4", ".avi", ".mkv", ".webm",
	".pdf", ".exe", ".iso",
}

// isFetchableURL reports whether the URL is an http(s) page worth
// fetching, filtering out asset extensions.
func isFetchableURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	return true
}
