package crawler

import "testing"

// TestCanonicalURL tests URL normalization for deduplication.
func TestCanonicalURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty path becomes root",
			in:   "http://test.onion",
			want: "http://test.onion/",
		},
		{
			name: "fragment stripped",
			in:   "http://test.onion/page#section",
			want: "http://test.onion/page",
		},
		{
			name: "host lowercased",
			in:   "http://TEST.onion/Page",
			want: "http://test.onion/Page",
		},
		{
			name: "query preserved",
			in:   "http://test.onion/search?q=tor",
			want: "http://test.onion/search?q=tor",
		},
		{
			name: "already canonical unchanged",
			in:   "http://test.onion/a/b",
			want: "http://test.onion/a/b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := CanonicalURL(tt.in); got != tt.want {
				t.Errorf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestURLDomain tests host extraction.
func TestURLDomain(t *testing.T) {
	t.Parallel()

	if got := URLDomain("http://Test.onion/page"); got != "test.onion" {
		t.Errorf("expected test.onion, got %q", got)
	}
	if got := URLDomain("://bad"); got != "" {
		t.Errorf("expected empty domain for unparseable URL, got %q", got)
	}
}

// TestIsFetchableURL tests the asset and scheme filter.
func TestIsFetchableURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"http://test.onion/page", true},
		{"https://test.onion/", true},
		{"http://test.onion/doc.html", true},
		{"http://test.onion/logo.png", false},
		{"http://test.onion/style.css", false},
		{"http://test.onion/archive.tar.gz", false},
		{"http://test.onion/IMAGE.JPG", false},
		{"ftp://test.onion/file", false},
		{"mailto:admin@test.onion", false},
	}

	for _, tt := range tests {
		if got := isFetchableURL(tt.url); got != tt.want {
			t.Errorf("isFetchableURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
