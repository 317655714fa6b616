package service

import "sync"

// PageLocks serializes writers per page. Draft saves and publishes for the
// same page take the page's lock; operations on different pages proceed
// independently, and reads never take a lock at all. A single instance is
// shared by every service that mutates page state.
type PageLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPageLocks creates an empty lock set.
func NewPageLocks() *PageLocks {
	return &PageLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for the given page, creating it on first use, and
// returns the unlock function. Locks are never removed from the map; the set
// of pages is small and stable for the lifetime of the process.
func (l *PageLocks) lock(pageID string) func() {
	l.mu.Lock()
	m, ok := l.locks[pageID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[pageID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
