package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts links and page metadata from HTML content.
//
// Design decision: We use golang.org/x/net/html rather than regex
// because it correctly handles the malformed HTML common on hidden
// services and gives a proper DOM structure to walk in a single pass.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative URLs.
	baseURL *url.URL
}

// ParseResult contains everything extracted from one HTML page in a
// single parsing pass.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// MetaDescription is the content of <meta name="description">.
	MetaDescription string

	// Headings are the texts of h1 through h3 elements, in document
	// order.
	Headings []string

	// Links contains all discovered anchor URLs, resolved to absolute
	// form.
	Links []string

	// InternalLinks are links within the same host as the base URL.
	InternalLinks []string

	// ExternalLinks are links to other .onion services.
	ExternalLinks []string

	// ClearnetLinks are links to non-.onion hosts.
	ClearnetLinks []string
}

// NewParser creates a parser with the given base URL for resolving
// relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse walks the HTML document and extracts title, meta description,
// headings and classified links.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Headings:      make([]string, 0),
		Links:         make([]string, 0),
		InternalLinks: make([]string, 0),
		ExternalLinks: make([]string, 0),
		ClearnetLinks: make([]string, 0),
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processElement handles a single HTML element node.
func (p *Parser) processElement(n *html.Node, result *ParseResult) {
	switch n.Data {
	case "title":
		if result.Title == "" {
			result.Title = strings.TrimSpace(nodeText(n))
		}

	case "a":
		if href := getAttr(n, "href"); href != "" {
			resolved := p.resolveURL(href)
			if resolved != "" {
				result.Links = append(result.Links, resolved)
				p.classifyLink(resolved, result)
			}
		}

	case "meta":
		name := getAttr(n, "name")
		if name == "" {
			name = getAttr(n, "property") // OpenGraph uses property
		}
		if strings.EqualFold(name, "description") && result.MetaDescription == "" {
			result.MetaDescription = strings.TrimSpace(getAttr(n, "content"))
		}

	case "h1", "h2", "h3":
		if text := strings.TrimSpace(nodeText(n)); text != "" {
			result.Headings = append(result.Headings, text)
		}
	}
}

// resolveURL resolves a relative URL against the base URL. Non-HTTP
// schemes and bare fragments return empty, which callers treat as
// "not a link".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return p.baseURL.ResolveReference(u).String()
}

// classifyLink categorizes a resolved link as internal, external onion,
// or clearnet.
func (p *Parser) classifyLink(link string, result *ParseResult) {
	u, err := url.Parse(link)
	if err != nil {
		return
	}

	host := u.Hostname()
	baseHost := p.baseURL.Hostname()

	// Same host first, with or without matching port. This covers both
	// onion addresses and plain hosts used in tests.
	if strings.EqualFold(u.Host, p.baseURL.Host) || strings.EqualFold(host, baseHost) {
		result.InternalLinks = append(result.InternalLinks, link)
		return
	}

	switch {
	case strings.HasSuffix(host, ".onion"):
		result.ExternalLinks = append(result.ExternalLinks, link)
	case host != "":
		result.ClearnetLinks = append(result.ClearnetLinks, link)
	default:
		result.InternalLinks = append(result.InternalLinks, link)
	}
}

// nodeText concatenates the text content of a node's subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
