package crawler

import "sync"

// Registry is the process-wide set of canonical URLs claimed for
// fetching. It grows monotonically for the lifetime of a run; there is
// no removal operation.
//
// Design decision: a single shared set with an atomic claim, not
// per-worker sets merged afterwards. Post-hoc merging cannot prevent two
// workers from having the same URL in flight at the same time.
type Registry struct {
	mu      sync.Mutex
	claimed map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		claimed: make(map[string]bool),
	}
}

// Claim atomically records the canonical form of url as claimed.
// It returns true iff this call was the first to claim the URL in the
// registry's lifetime. Concurrent claims of the same URL yield exactly
// one true; the membership check and insert happen under one lock
// acquisition, so there is no window for two callers to both see "new".
func (r *Registry) Claim(url string) bool {
	canonical := CanonicalURL(url)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.claimed[canonical] {
		return false
	}
	r.claimed[canonical] = true
	return true
}

// Seen reports whether the URL has already been claimed, without
// claiming it. Used to avoid enqueuing frontier entries that would be
// skipped at claim time anyway; the authoritative check is still Claim.
func (r *Registry) Seen(url string) bool {
	canonical := CanonicalURL(url)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimed[canonical]
}

// Preseed marks a batch of already-canonical URLs as claimed. Called
// once at startup with the store's existing keys to make restarted runs
// skip pages fetched by earlier runs.
func (r *Registry) Preseed(urls []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range urls {
		r.claimed[u] = true
	}
}

// Len returns the number of claimed URLs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.claimed)
}
