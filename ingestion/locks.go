package ingestion

import (
	"sync"

	"github.com/poiesic/recall/core"
)

// documentLocks serializes processing per document ID. Submissions for
// the same document run one at a time in arrival order while distinct
// documents proceed concurrently. Entries are reference-counted and
// removed once the last holder releases.
type documentLocks struct {
	mu      sync.Mutex
	entries map[core.ID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{entries: make(map[core.ID]*lockEntry)}
}

// acquire blocks until the document's lock is held and returns the
// release function.
func (l *documentLocks) acquire(id core.ID) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
