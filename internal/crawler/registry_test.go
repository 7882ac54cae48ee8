package crawler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// TestRegistryClaim tests the atomic claim semantics.
func TestRegistryClaim(t *testing.T) {
	t.Parallel()

	t.Run("first claim wins, second loses", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		if !r.Claim("http://test.onion/page") {
			t.Error("expected first claim to succeed")
		}
		if r.Claim("http://test.onion/page") {
			t.Error("expected second claim to fail")
		}
	})

	t.Run("claims are keyed on canonical form", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		if !r.Claim("http://test.onion") {
			t.Error("expected first claim to succeed")
		}
		// Same page: trailing slash and fragment differences.
		if r.Claim("http://test.onion/") {
			t.Error("expected trailing-slash variant to be a duplicate")
		}
		if r.Claim("http://test.onion/#section") {
			t.Error("expected fragment variant to be a duplicate")
		}
	})

	t.Run("concurrent claims yield exactly one winner", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()

		const goroutines = 50
		var wins atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if r.Claim("http://contested.onion/page") {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		if got := wins.Load(); got != 1 {
			t.Errorf("expected exactly 1 winning claim, got %d", got)
		}
	})

	t.Run("distinct URLs do not contend", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		for i := 0; i < 10; i++ {
			url := fmt.Sprintf("http://test.onion/page%d", i)
			if !r.Claim(url) {
				t.Errorf("expected claim on %s to succeed", url)
			}
		}
		if r.Len() != 10 {
			t.Errorf("expected 10 claimed URLs, got %d", r.Len())
		}
	})
}

// TestRegistrySeen tests the advisory membership check.
func TestRegistrySeen(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	if r.Seen("http://test.onion/page") {
		t.Error("expected unseen URL before any claim")
	}

	r.Claim("http://test.onion/page")

	if !r.Seen("http://test.onion/page") {
		t.Error("expected URL to be seen after claim")
	}
	// Seen must not claim.
	if r.Len() != 1 {
		t.Errorf("expected 1 claimed URL, got %d", r.Len())
	}
}

// TestRegistryPreseed tests resume-style preseeding.
func TestRegistryPreseed(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Preseed([]string{
		"http://test.onion/",
		"http://test.onion/about",
	})

	if r.Claim("http://test.onion/") {
		t.Error("expected preseeded URL to be a duplicate")
	}
	if !r.Claim("http://test.onion/new") {
		t.Error("expected fresh URL to claim successfully")
	}
	if r.Len() != 3 {
		t.Errorf("expected 3 claimed URLs, got %d", r.Len())
	}
}
