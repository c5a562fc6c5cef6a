package fingerprint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// document is the on-disk layout of a fingerprint database file.
type document struct {
	Versions []Version   `yaml:"versions"`
	Files    []File      `yaml:"files"`
	Hashes   []HashEntry `yaml:"hashes"`
}

// FileStore is a Store backed by a YAML snapshot on disk. The whole database
// is loaded at open and rewritten on every Ingest and on Close, so writes
// stay cheap during a batch. A sibling lock file guards the database against
// concurrent processes; within a process the embedded MemoryStore serializes
// access.
type FileStore struct {
	path string
	lock *flock.Flock
	mem  *MemoryStore
}

// OpenFileStore opens (or creates) the database file at path and acquires
// its lock. Callers must Close the store to persist pending rows and release
// the lock.
func OpenFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, NewInvalidInputError("path", "database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire database lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("database %s is locked by another process", path)
	}

	s := &FileStore{
		path: path,
		lock: lock,
		mem:  NewMemoryStore(opts...),
	}
	if err := s.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read database %s: %w", s.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse database %s: %w", s.path, err)
	}
	s.mem.restore(doc)
	return nil
}

// Save writes the current contents to disk via a temp-file rename, so a
// crash mid-write never truncates the previous snapshot.
func (s *FileStore) Save() error {
	doc := s.mem.snapshot()
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode database: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".htp-db-*")
	if err != nil {
		return fmt.Errorf("create temp database file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp database file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace database %s: %w", s.path, err)
	}
	return nil
}

// RegisterVersions implements Store.
func (s *FileStore) RegisterVersions(technology string, labels []string) error {
	return s.mem.RegisterVersions(technology, labels)
}

// RegisterFile implements Store.
func (s *FileStore) RegisterFile(technology, path string) error {
	return s.mem.RegisterFile(technology, path)
}

// RecordHash implements Store.
func (s *FileStore) RecordHash(sum, technology, version string) error {
	return s.mem.RecordHash(sum, technology, version)
}

// Ingest implements Store and persists the batch once applied.
func (s *FileStore) Ingest(technology string, labels []string, records []Record) error {
	if err := s.mem.Ingest(technology, labels, records); err != nil {
		return err
	}
	return s.Save()
}

// AllHashes implements Store.
func (s *FileStore) AllHashes() ([]HashEntry, error) {
	return s.mem.AllHashes()
}

// Lookup implements Store.
func (s *FileStore) Lookup(sum string) (HashEntry, error) {
	return s.mem.Lookup(sum)
}

// StaticFilePaths implements Store.
func (s *FileStore) StaticFilePaths() ([]string, error) {
	return s.mem.StaticFilePaths()
}

// Close persists pending rows, releases the lock and closes the store.
func (s *FileStore) Close() error {
	saveErr := s.Save()
	if err := s.mem.Close(); err != nil {
		return err
	}
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("release database lock: %w", err)
	}
	return saveErr
}
