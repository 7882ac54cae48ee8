package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MaxBodySize is the maximum raw body size retained on a PageRecord.
// Larger responses are truncated before persistence to bound memory
// and database growth. 5MB covers essentially all HTML pages.
const MaxBodySize = 5 * 1024 * 1024 // 5 MB

// PageRecord is the result of one successful fetch, created by a worker
// and handed to the store. The store is the sole owner after Save.
//
// Design decision: We keep both the URL as fetched and the canonical URL
// because:
//  1. The canonical URL is the deduplication key
//  2. The original URL preserves what the server actually saw
//  3. Reporting wants the human-readable original
type PageRecord struct {
	// URL is the page URL as it was fetched.
	URL string `json:"url"`

	// CanonicalURL is the normalized form used as the uniqueness key.
	CanonicalURL string `json:"canonical_url"`

	// ParentURL is the page on which this URL was discovered.
	// Empty for seed pages.
	ParentURL string `json:"parent_url,omitempty"`

	// Domain is the onion domain this page belongs to.
	Domain string `json:"domain"`

	// Depth is the traversal depth at which the page was fetched.
	// Seeds are depth 0; a link found on a depth-n page is depth n+1.
	Depth int `json:"depth"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type"`

	// Title is the page title extracted from the <title> tag.
	// Empty for non-HTML content.
	Title string `json:"title,omitempty"`

	// MetaDescription is the content of <meta name="description">.
	MetaDescription string `json:"meta_description,omitempty"`

	// Headings holds the text of h1-h3 elements, in document order.
	Headings []string `json:"headings,omitempty"`

	// Headers contains all HTTP response headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the raw response body, truncated to MaxBodySize.
	Body []byte `json:"-"` // excluded from JSON to keep reports small

	// Hash is the SHA-256 hex digest of the raw body, computed before
	// truncation. Used for change detection across runs.
	Hash string `json:"hash"`

	// LinkCount is the number of links discovered on the page.
	LinkCount int `json:"link_count"`

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time `json:"fetched_at"`

	// Worker identifies which pool worker fetched the page.
	Worker string `json:"worker"`
}

// ComputeHash calculates and sets the SHA-256 hash of the body.
// Call this before TruncateBody so the hash covers the full content.
func (p *PageRecord) ComputeHash() {
	if len(p.Body) == 0 {
		p.Hash = ""
		return
	}
	sum := sha256.Sum256(p.Body)
	p.Hash = hex.EncodeToString(sum[:])
}

// TruncateBody enforces the MaxBodySize cap on the raw body.
func (p *PageRecord) TruncateBody() {
	if len(p.Body) > MaxBodySize {
		p.Body = p.Body[:MaxBodySize]
	}
}

// IsHTML reports whether the content type indicates an HTML document.
func (p *PageRecord) IsHTML() bool {
	return p.ContentType == "text/html" ||
		p.ContentType == "application/xhtml+xml" ||
		// Handle content types with charset suffix
		len(p.ContentType) > 9 && p.ContentType[:9] == "text/html"
}

// Header returns the first value of the named header, or "".
func (p *PageRecord) Header(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}
