package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"bitwatch/internal/analysis"
)

// historyVersion is the on-disk format version of the JSON history file.
const historyVersion = 1

// historyFile is the flat JSON document the JSONStore reads and writes.
type historyFile struct {
	Version int               `json:"version"`
	Records []analysis.Record `json:"records"`

	// MACs maps record ID to its hex HMAC when the store is secure.
	MACs map[string]string `json:"macs,omitempty"`
}

// JSONStore keeps the whole history in one JSON file. Every save rewrites
// the file through a temp-and-rename, after copying the previous contents
// to a .bak sibling.
type JSONStore struct {
	mu     sync.Mutex
	path   string
	max    int
	hmac   *integrityKey // nil when the store is not secure
	closed bool
}

// OpenJSON opens or creates the JSON history store described by opts.
func OpenJSON(opts Options) (*JSONStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("store: json backend requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	s := &JSONStore{path: opts.Path, max: opts.MaxRecords}

	if opts.Secure {
		key, err := loadOrCreateIntegrityKey(opts.KeyPath)
		if err != nil {
			return nil, err
		}
		s.hmac = key
	}

	// Fail early on an unreadable or corrupt history file.
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save appends record to the history, deduplicating by ID and pruning to
// the configured maximum.
func (s *JSONStore) Save(record *analysis.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	hist, err := s.load()
	if err != nil {
		return err
	}

	for _, existing := range hist.Records {
		if existing.ID == record.ID {
			return nil
		}
	}

	hist.Records = append(hist.Records, *record)
	sortOldestFirst(hist.Records)
	if s.max > 0 && len(hist.Records) > s.max {
		dropped := hist.Records[:len(hist.Records)-s.max]
		hist.Records = hist.Records[len(hist.Records)-s.max:]
		for _, d := range dropped {
			delete(hist.MACs, d.ID)
		}
	}

	if s.hmac != nil {
		if hist.MACs == nil {
			hist.MACs = make(map[string]string)
		}
		mac, err := s.hmac.Seal(record)
		if err != nil {
			return err
		}
		hist.MACs[record.ID] = mac
	}

	return s.write(hist)
}

// LoadRecent returns up to n records, newest first. In secure mode every
// returned record is verified against its stored HMAC.
func (s *JSONStore) LoadRecent(n int) ([]analysis.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	hist, err := s.load()
	if err != nil {
		return nil, err
	}

	records := hist.Records
	sortOldestFirst(records)

	// Newest first.
	out := make([]analysis.Record, 0, len(records))
	for i := len(records) - 1; i >= 0 && (n <= 0 || len(out) < n); i-- {
		if s.hmac != nil {
			if err := s.hmac.Verify(&records[i], hist.MACs[records[i].ID]); err != nil {
				return nil, err
			}
		}
		out = append(out, records[i])
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *JSONStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	hist, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(hist.Records), nil
}

// Prune drops the oldest records until at most max remain.
func (s *JSONStore) Prune(max int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if max < 0 {
		max = 0
	}

	hist, err := s.load()
	if err != nil {
		return 0, err
	}
	if len(hist.Records) <= max {
		return 0, nil
	}

	sortOldestFirst(hist.Records)
	dropped := hist.Records[:len(hist.Records)-max]
	hist.Records = hist.Records[len(hist.Records)-max:]
	for _, d := range dropped {
		delete(hist.MACs, d.ID)
	}

	if err := s.write(hist); err != nil {
		return 0, err
	}
	return len(dropped), nil
}

// Close marks the store closed. The JSON backend holds no open handles
// between operations.
func (s *JSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// load reads and decodes the history file. A missing file is an empty
// history, not an error.
func (s *JSONStore) load() (*historyFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &historyFile{Version: historyVersion}, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var hist historyFile
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if hist.Version == 0 {
		hist.Version = historyVersion
	}
	return &hist, nil
}

// write backs up the current file and atomically replaces it.
func (s *JSONStore) write(hist *historyFile) error {
	hist.Version = historyVersion

	data, err := json.MarshalIndent(hist, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if prev, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+".bak", prev, 0600); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

func sortOldestFirst(records []analysis.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
}
