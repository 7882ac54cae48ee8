package crawler

// frontierEntry is one discovered-but-not-yet-fetched URL with the
// depth at which it was discovered and the page that linked to it.
type frontierEntry struct {
	url    string
	parent string
	depth  int
}

// frontier is a worker's FIFO queue of pending (URL, depth) pairs.
// FIFO order makes the traversal breadth-first: all depth-n pages are
// fetched before any depth-n+1 page, which bounds memory per level and
// keeps the visit order deterministic for a given link graph.
//
// Local to one worker; never shared.
type frontier struct {
	entries []frontierEntry
}

// push appends an entry to the back of the queue.
func (f *frontier) push(url, parent string, depth int) {
	f.entries = append(f.entries, frontierEntry{url: url, parent: parent, depth: depth})
}

// pop removes and returns the front entry. ok is false when empty.
func (f *frontier) pop() (entry frontierEntry, ok bool) {
	if len(f.entries) == 0 {
		return frontierEntry{}, false
	}
	entry = f.entries[0]
	f.entries = f.entries[1:]
	return entry, true
}

// len returns the number of pending entries.
func (f *frontier) len() int {
	return len(f.entries)
}
