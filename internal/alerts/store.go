// Package alerts implements the bounded in-memory alert log. The log is
// newest-first, capped, and safe for concurrent use; nothing here is
// persisted across restarts.
package alerts

import (
	"sync"
	"time"

	"github.com/arveo/kismet-sentinel/internal/models"
)

// DefaultCapacity is the retention cap of the process-wide alert log.
const DefaultCapacity = 500

// Store is a bounded, newest-first log of alert events.
type Store struct {
	mu       sync.RWMutex
	events   []models.AlertEvent
	capacity int
	lastID   int64
}

// NewStore returns a Store retaining at most capacity events.
// capacity <= 0 falls back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		events:   make([]models.AlertEvent, 0, capacity),
		capacity: capacity,
	}
}

// Append records a new event at the head of the log, evicting the oldest
// entry when over capacity, and returns the stored event with its assigned
// id and timestamp. The critical section is O(1): no I/O, no detector logic.
func (s *Store) Append(category models.Category, severity models.Severity, title, body string) models.AlertEvent {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Millisecond ids collide when two events land in the same tick;
	// bump past the previous id to keep them strictly increasing.
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	ev := models.AlertEvent{
		ID:       id,
		TS:       now.Format(time.RFC3339),
		Category: category,
		Severity: severity,
		Title:    title,
		Body:     body,
	}

	s.events = append(s.events, models.AlertEvent{})
	copy(s.events[1:], s.events)
	s.events[0] = ev
	if len(s.events) > s.capacity {
		s.events = s.events[:s.capacity]
	}
	return ev
}

// Query returns up to limit events, newest first, matching the optional
// severity and category filters (AND-combined; empty string = no filter).
// limit <= 0 means no limit. The result is a copy.
func (s *Store) Query(severity, category string, limit int) []models.AlertEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AlertEvent, 0, len(s.events))
	for _, ev := range s.events {
		if severity != "" && string(ev.Severity) != severity {
			continue
		}
		if category != "" && string(ev.Category) != category {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Clear empties the log.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = s.events[:0]
}

// Len reports the number of retained events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
