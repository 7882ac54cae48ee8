package crawler

import (
	"strings"
	"testing"
)

// TestParser tests HTML extraction.
func TestParser(t *testing.T) {
	t.Parallel()

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Hidden Service</title></head><body></body></html>`
		parser, err := NewParser("http://test.onion/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.Title != "Hidden Service" {
			t.Errorf("expected title 'Hidden Service', got %q", result.Title)
		}
	})

	t.Run("extracts meta description", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<meta name="description" content="An index of services">
			<meta name="keywords" content="ignored">
		</head><body></body></html>`

		parser, err := NewParser("http://test.onion/")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.MetaDescription != "An index of services" {
			t.Errorf("expected meta description, got %q", result.MetaDescription)
		}
	})

	t.Run("extracts headings in document order", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<h1>Welcome</h1>
			<h2>Services</h2>
			<h3>Contact</h3>
			<h4>Ignored</h4>
		</body></html>`

		parser, err := NewParser("http://test.onion/")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		want := []string{"Welcome", "Services", "Contact"}
		if len(result.Headings) != len(want) {
			t.Fatalf("expected %d headings, got %d: %v", len(want), len(result.Headings), result.Headings)
		}
		for i, heading := range want {
			if result.Headings[i] != heading {
				t.Errorf("heading %d: expected %q, got %q", i, heading, result.Headings[i])
			}
		}
	})

	t.Run("resolves and classifies links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="/internal">Internal Link</a>
			<a href="http://test.onion/same">Same Service</a>
			<a href="http://other.onion/external">External Onion</a>
			<a href="http://example.com/clearnet">Clearnet</a>
		</body></html>`

		parser, err := NewParser("http://test.onion/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Links) != 4 {
			t.Errorf("expected 4 links, got %d", len(result.Links))
		}
		if len(result.InternalLinks) != 2 {
			t.Errorf("expected 2 internal links, got %d: %v", len(result.InternalLinks), result.InternalLinks)
		}
		if result.InternalLinks[0] != "http://test.onion/internal" {
			t.Errorf("expected relative link resolved against base, got %q", result.InternalLinks[0])
		}
		if len(result.ExternalLinks) != 1 {
			t.Errorf("expected 1 external onion link, got %d", len(result.ExternalLinks))
		}
		if len(result.ClearnetLinks) != 1 {
			t.Errorf("expected 1 clearnet link, got %d", len(result.ClearnetLinks))
		}
	})

	t.Run("skips non-navigational hrefs", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="mailto:admin@test.onion">Mail</a>
			<a href="javascript:void(0)">JS</a>
			<a href="#top">Anchor</a>
			<a href="tel:+123456">Phone</a>
		</body></html>`

		parser, err := NewParser("http://test.onion/")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Links) != 0 {
			t.Errorf("expected 0 links, got %d: %v", len(result.Links), result.Links)
		}
	})

	t.Run("tolerates malformed HTML", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><p>Unclosed<a href="/ok">link</body>`

		parser, err := NewParser("http://test.onion/")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("expected malformed HTML to parse, got: %v", err)
		}
		if len(result.InternalLinks) != 1 {
			t.Errorf("expected 1 internal link, got %d", len(result.InternalLinks))
		}
	})
}
