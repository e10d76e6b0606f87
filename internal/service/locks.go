package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// slotLocks serializes admission per (resource, slot timestamp) key.
// Entries are reference-counted and removed once the last holder releases,
// so the map does not grow with the number of distinct slots ever booked.
type slotLocks struct {
	mu      sync.Mutex
	entries map[string]*slotLockEntry
}

type slotLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{entries: make(map[string]*slotLockEntry)}
}

func slotKey(resourceID uuid.UUID, startsAt time.Time) string {
	return resourceID.String() + "@" + startsAt.UTC().Format(time.RFC3339)
}

// lock blocks until the key is exclusively held and returns the unlock
// function. Distinct keys never block each other.
func (l *slotLocks) lock(resourceID uuid.UUID, startsAt time.Time) (unlock func()) {
	key := slotKey(resourceID, startsAt)

	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &slotLockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}
