// Package store owns the authoritative in-memory content database and its
// persistence to a single JSON document on disk.
//
// All mutation funnels through UpdateEntry: a read-modify-write that
// persists the whole database before returning, so the in-memory map and
// the on-disk file never diverge for longer than one call. The store is
// safe for concurrent use within one process; concurrent writers from
// different processes are not coordinated.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oletizi/shakespeare-sub001/internal/pathcodec"
	"github.com/oletizi/shakespeare-sub001/internal/types"
)

// Store holds the content database in memory and persists it through the
// path codec so on-disk keys stay relative to the database directory
type Store struct {
	path  string // absolute path to the database file
	codec *pathcodec.Codec

	mu sync.Mutex
	db *types.Database
}

// New creates a store for the database file at path. Call Load before use.
func New(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path %s: %w", path, err)
	}

	codec, err := pathcodec.New(abs)
	if err != nil {
		return nil, err
	}

	return &Store{
		path:  abs,
		codec: codec,
	}, nil
}

// Path returns the absolute database file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the database file into memory. A missing file initializes an
// empty database and immediately persists it, so after a successful Load
// the file always exists. Any other read or parse failure is fatal and
// propagated with its cause.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("no database file, initializing empty database", "path", s.path)
			s.db = types.NewDatabase()
			return s.saveLocked()
		}
		return fmt.Errorf("failed to read database %s: %w", s.path, err)
	}

	db := &types.Database{}
	if err := json.Unmarshal(data, db); err != nil {
		return fmt.Errorf("failed to parse database %s: %w", s.path, err)
	}

	// Decode every key and entry path from relative to absolute
	decoded := make(map[string]*types.Entry, len(db.Entries))
	for key, entry := range db.Entries {
		if entry == nil {
			return fmt.Errorf("failed to parse database %s: null entry under key %s", s.path, key)
		}
		abs := s.codec.ToAbsolute(key)
		entry.Path = s.codec.ToAbsolute(entry.Path)
		decoded[abs] = entry
	}
	db.Entries = decoded

	if err := db.Validate(); err != nil {
		return fmt.Errorf("failed to parse database %s: %w", s.path, err)
	}

	s.db = db
	return nil
}

// Save stamps lastUpdated and writes the whole database as one document,
// replacing the prior file contents. Keys and entry paths are encoded
// relative to the database directory.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked persists the database. Must be called with mu held.
func (s *Store) saveLocked() error {
	if s.db == nil {
		return fmt.Errorf("database not loaded")
	}

	s.db.LastUpdated = time.Now().UTC()

	// Encode a relative-keyed copy for disk; the in-memory map stays
	// absolute throughout.
	onDisk := &types.Database{
		LastUpdated: s.db.LastUpdated,
		Entries:     make(map[string]*types.Entry, len(s.db.Entries)),
		Extra:       s.db.Extra,
	}
	for key, entry := range s.db.Entries {
		rel := s.codec.ToRelative(key)
		clone := entry.Clone()
		clone.Path = s.codec.ToRelative(entry.Path)
		onDisk.Entries[rel] = clone
	}

	data, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal database: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", filepath.Dir(s.path), err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write database %s: %w", s.path, err)
	}

	return nil
}

// Data returns the live in-memory database. Callers get the same object
// across calls until the next Load replaces it; treat it as read-only and
// mutate only through UpdateEntry.
func (s *Store) Data() *types.Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}

// UpdateEntry is the only sanctioned mutation path. It looks up the current
// entry (nil if absent), calls update to produce the replacement, assigns it
// under path, and persists the whole database before returning. Each call is
// a self-contained read-modify-write-persist unit.
func (s *Store) UpdateEntry(path string, update func(current *types.Entry) (*types.Entry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("database not loaded")
	}

	current := s.db.Entries[path]
	next, err := update(current)
	if err != nil {
		return err
	}
	if next == nil {
		return fmt.Errorf("update for %s returned nil entry", path)
	}
	if next.Path != path {
		return fmt.Errorf("update for %s returned entry with path %s", path, next.Path)
	}

	s.db.Entries[path] = next
	return s.saveLocked()
}

// Entry returns the entry for path, or nil if the document is untracked
func (s *Store) Entry(path string) *types.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	return s.db.Entries[path]
}
