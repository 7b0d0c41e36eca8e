package store

import (
	"sort"
	"sync"

	"bitwatch/internal/analysis"
)

// MemoryStore keeps records in process memory. Used by tests and by the
// daemon's "memory" backend for throwaway runs.
type MemoryStore struct {
	mu      sync.Mutex
	records []analysis.Record
	max     int
	closed  bool
}

// NewMemory creates an in-memory store capped at maxRecords (0 = uncapped).
func NewMemory(maxRecords int) *MemoryStore {
	return &MemoryStore{max: maxRecords}
}

// Save appends a record, skipping duplicate IDs.
func (s *MemoryStore) Save(record *analysis.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	for _, existing := range s.records {
		if existing.ID == record.ID {
			return nil
		}
	}

	s.records = append(s.records, *record)
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].Timestamp < s.records[j].Timestamp
	})
	if s.max > 0 && len(s.records) > s.max {
		s.records = s.records[len(s.records)-s.max:]
	}
	return nil
}

// LoadRecent returns up to n records, newest first.
func (s *MemoryStore) LoadRecent(n int) ([]analysis.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]analysis.Record, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0 && (n <= 0 || len(out) < n); i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.records), nil
}

// Prune drops the oldest records until at most max remain.
func (s *MemoryStore) Prune(max int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if max < 0 {
		max = 0
	}
	if len(s.records) <= max {
		return 0, nil
	}

	removed := len(s.records) - max
	s.records = s.records[removed:]
	return removed, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
