package engine

import (
	"sync"
	"time"
)

// seenSet is a bounded, time-evicted set of executed event ids. It
// makes at-least-once event redelivery safe: a duplicate delivery of an
// already-executed event never double-counts a buyback.
type seenSet struct {
	mu         sync.Mutex
	entries    map[string]time.Time
	maxAge     time.Duration
	maxEntries int
	now        func() time.Time
}

func newSeenSet(maxAge time.Duration, maxEntries int) *seenSet {
	return &seenSet{
		entries:    make(map[string]time.Time),
		maxAge:     maxAge,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Seen reports whether id was marked within the retention window.
func (s *seenSet) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.entries[id]
	if !ok {
		return false
	}
	if s.now().Sub(at) > s.maxAge {
		delete(s.entries, id)
		return false
	}
	return true
}

// Mark records id, evicting expired entries and, if the set is still
// full, the oldest entry.
func (s *seenSet) Mark(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, at := range s.entries {
		if now.Sub(at) > s.maxAge {
			delete(s.entries, k)
		}
	}

	if len(s.entries) >= s.maxEntries {
		var oldestID string
		var oldestAt time.Time
		for k, at := range s.entries {
			if oldestID == "" || at.Before(oldestAt) {
				oldestID, oldestAt = k, at
			}
		}
		delete(s.entries, oldestID)
	}

	s.entries[id] = now
}
