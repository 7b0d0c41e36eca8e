// Package store persists analysis records.
//
// The analysis core hands records over by value and never touches storage
// itself. Deduplication (by record ID), pruning, and backups are owned here.
package store

import (
	"errors"
	"fmt"

	"bitwatch/internal/analysis"
)

// Store errors.
var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")

	// ErrIntegrity is returned when record verification fails in a
	// secure store.
	ErrIntegrity = errors.New("store: integrity check failed")
)

// Store is the history collaborator the analysis pipeline writes to.
type Store interface {
	// Save persists a record. Saving a record whose ID already exists is
	// a no-op, so repeated analysis of the same input is idempotent.
	Save(record *analysis.Record) error

	// LoadRecent returns up to n records, newest first.
	LoadRecent(n int) ([]analysis.Record, error)

	// Count returns the number of stored records.
	Count() (int, error)

	// Prune drops the oldest records until at most max remain.
	Prune(max int) (removed int, err error)

	// Close releases underlying resources.
	Close() error
}

// Backend names for Options.Type.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options selects and configures a store backend.
type Options struct {
	// Type is one of "json", "sqlite", "memory".
	Type string

	// Path is the history file (json) or database file (sqlite).
	Path string

	// MaxRecords caps the history size; 0 disables automatic pruning.
	MaxRecords int

	// Secure enables per-record HMAC verification (json backend only).
	Secure bool

	// KeyPath is the integrity key file used when Secure is set.
	KeyPath string
}

// Open creates the store backend selected by opts.
func Open(opts Options) (Store, error) {
	switch opts.Type {
	case BackendJSON, "":
		return OpenJSON(opts)
	case BackendSQLite:
		return OpenSQLite(opts.Path, opts.MaxRecords)
	case BackendMemory:
		return NewMemory(opts.MaxRecords), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", opts.Type)
	}
}
