package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSlotLocksSerializeSameKey(t *testing.T) {
	locks := newSlotLocks()
	resourceID := uuid.New()
	startsAt := time.Date(2025, time.January, 1, 8, 0, 0, 0, time.UTC)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(resourceID, startsAt)
			defer unlock()
			// Unsynchronized on purpose; the keyed lock is the only guard.
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestSlotLocksReleaseEntries(t *testing.T) {
	locks := newSlotLocks()
	resourceID := uuid.New()
	startsAt := time.Date(2025, time.January, 1, 8, 0, 0, 0, time.UTC)

	unlock := locks.lock(resourceID, startsAt)
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries, "released keys must not accumulate")
}

func TestSlotKeyDistinguishesResourceAndTime(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	at := time.Date(2025, time.January, 1, 8, 0, 0, 0, time.UTC)

	assert.NotEqual(t, slotKey(a, at), slotKey(b, at))
	assert.NotEqual(t, slotKey(a, at), slotKey(a, at.Add(time.Hour)))
	assert.Equal(t, slotKey(a, at), slotKey(a, at))
}
