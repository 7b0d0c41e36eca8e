package store

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/hkdf"

	"bitwatch/internal/analysis"
)

// masterKeySize is the size of the on-disk master key in bytes.
const masterKeySize = 32

// hkdfInfo domain-separates the HMAC key from any other use of the
// master key.
var hkdfInfo = []byte("bitwatch-store-integrity-v1")

// integrityKey computes and checks per-record HMACs for the secure JSON
// store. The HMAC key is derived from a master key file with HKDF-SHA256,
// so the master key never touches record data directly.
type integrityKey struct {
	key []byte
}

// loadOrCreateIntegrityKey reads the master key at path, creating a fresh
// random one (0600) on first use, and derives the HMAC key.
func loadOrCreateIntegrityKey(path string) (*integrityKey, error) {
	if path == "" {
		return nil, fmt.Errorf("store: secure mode requires a key path")
	}

	master, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		master = make([]byte, masterKeySize)
		if _, err := rand.Read(master); err != nil {
			return nil, fmt.Errorf("generate integrity key: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create key directory: %w", err)
		}
		if err := os.WriteFile(path, master, 0600); err != nil {
			return nil, fmt.Errorf("write integrity key: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("read integrity key: %w", err)
	}
	if len(master) < masterKeySize {
		return nil, fmt.Errorf("store: integrity key is %d bytes, need %d", len(master), masterKeySize)
	}

	derived := make([]byte, masterKeySize)
	reader := hkdf.New(sha256.New, master, nil, hkdfInfo)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, fmt.Errorf("derive integrity key: %w", err)
	}

	return &integrityKey{key: derived}, nil
}

// Seal returns the hex HMAC over the record's canonical JSON encoding.
func (k *integrityKey) Seal(record *analysis.Record) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode record for sealing: %w", err)
	}

	mac := hmac.New(sha256.New, k.key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks a record against its stored hex HMAC.
func (k *integrityKey) Verify(record *analysis.Record, stored string) error {
	if stored == "" {
		return fmt.Errorf("%w: record %s has no MAC", ErrIntegrity, record.ID)
	}

	want, err := k.Seal(record)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(stored)) {
		return fmt.Errorf("%w: record %s", ErrIntegrity, record.ID)
	}
	return nil
}
