package fingerprint

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Option customizes a store at construction time.
type Option func(*MemoryStore)

// WithStaticExtensions overrides the extensions StaticFilePaths matches.
func WithStaticExtensions(exts []string) Option {
	return func(s *MemoryStore) {
		s.staticExts = staticExtensionSet(exts)
	}
}

// MemoryStore is the in-memory Store implementation. A single mutex
// serializes the check-then-act upserts, so one MemoryStore is safe for
// concurrent use within a process.
type MemoryStore struct {
	mu         sync.Mutex
	versions   map[Version]struct{}
	files      map[File]struct{}
	fileOrder  []File
	hashes     map[string]*HashEntry
	hashOrder  []string
	staticExts map[string]struct{}
	closed     bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		versions:   make(map[Version]struct{}),
		files:      make(map[File]struct{}),
		hashes:     make(map[string]*HashEntry),
		staticExts: staticExtensionSet(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterVersions implements Store.
func (s *MemoryStore) RegisterVersions(technology string, labels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, label := range labels {
		s.registerVersionLocked(technology, label)
	}
	return nil
}

func (s *MemoryStore) registerVersionLocked(technology, label string) {
	key := Version{Technology: technology, Label: label}
	if _, exists := s.versions[key]; exists {
		log.Debug().Str("technology", technology).Str("version", label).
			Msg("version already registered")
		return
	}
	s.versions[key] = struct{}{}
	log.Info().Str("technology", technology).Str("version", label).
		Msg("version registered")
}

// RegisterFile implements Store.
func (s *MemoryStore) RegisterFile(technology, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.registerFileLocked(technology, path)
	return nil
}

func (s *MemoryStore) registerFileLocked(technology, path string) {
	key := File{Technology: technology, Path: path}
	if _, exists := s.files[key]; exists {
		log.Debug().Str("technology", technology).Str("path", path).
			Msg("file already registered")
		return
	}
	s.files[key] = struct{}{}
	s.fileOrder = append(s.fileOrder, key)
	log.Info().Str("technology", technology).Str("path", path).
		Msg("file registered")
}

// RecordHash implements Store. The technology field of an existing row is
// never rewritten: content first seen under technology A keeps A even when
// technology B later produces identical bytes. The cross-technology case is
// logged so the overlap stays observable.
func (s *MemoryStore) RecordHash(sum, technology, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.recordHashLocked(sum, technology, version)
	return nil
}

func (s *MemoryStore) recordHashLocked(sum, technology, version string) {
	entry, exists := s.hashes[sum]
	if !exists {
		s.hashes[sum] = &HashEntry{
			Sum:        sum,
			Technology: technology,
			Versions:   []string{version},
		}
		s.hashOrder = append(s.hashOrder, sum)
		log.Info().Str("hash", sum).Str("technology", technology).
			Str("version", version).Msg("hash recorded")
		return
	}

	if entry.Technology != technology {
		log.Debug().Str("hash", sum).
			Str("technology", entry.Technology).
			Str("otherTechnology", technology).
			Msg("identical content produced by another technology")
	}

	if entry.HasVersion(version) {
		log.Debug().Str("hash", sum).Str("version", version).
			Msg("version already registered for hash")
		return
	}
	entry.Versions = append(entry.Versions, version)
	log.Debug().Str("hash", sum).Str("version", version).
		Msg("hash updated with new version")
}

// Ingest implements Store. All upserts share one lock acquisition, so a
// batch is applied without interleaving from other writers in this process.
func (s *MemoryStore) Ingest(technology string, labels []string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, label := range labels {
		s.registerVersionLocked(technology, label)
	}
	for _, rec := range records {
		s.registerFileLocked(technology, rec.Path)
		s.recordHashLocked(rec.Sum, technology, rec.Version)
	}
	return nil
}

// AllHashes implements Store.
func (s *MemoryStore) AllHashes() ([]HashEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]HashEntry, 0, len(s.hashOrder))
	for _, sum := range s.hashOrder {
		out = append(out, cloneEntry(s.hashes[sum]))
	}
	return out, nil
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(sum string) (HashEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return HashEntry{}, ErrClosed
	}
	entry, ok := s.hashes[sum]
	if !ok {
		return HashEntry{}, NewNotFoundError("hash", sum)
	}
	return cloneEntry(entry), nil
}

// StaticFilePaths implements Store.
func (s *MemoryStore) StaticFilePaths() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []string
	for _, f := range s.fileOrder {
		if isStaticPath(f.Path, s.staticExts) {
			out = append(out, f.Path)
		}
	}
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Versions returns the registered version labels for a technology, in no
// particular order.
func (s *MemoryStore) Versions(technology string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []string
	for v := range s.versions {
		if v.Technology == technology {
			out = append(out, v.Label)
		}
	}
	return out, nil
}

// Files returns the registered file paths for a technology, in first-seen
// order.
func (s *MemoryStore) Files(technology string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	var out []string
	for _, f := range s.fileOrder {
		if f.Technology == technology {
			out = append(out, f.Path)
		}
	}
	return out, nil
}

func cloneEntry(e *HashEntry) HashEntry {
	out := *e
	out.Versions = append([]string(nil), e.Versions...)
	return out
}

// snapshot captures the store contents for serialization.
func (s *MemoryStore) snapshot() document {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := document{}
	doc.Files = append(doc.Files, s.fileOrder...)
	for v := range s.versions {
		doc.Versions = append(doc.Versions, v)
	}
	sort.Slice(doc.Versions, func(i, j int) bool {
		a, b := doc.Versions[i], doc.Versions[j]
		if a.Technology != b.Technology {
			return a.Technology < b.Technology
		}
		return a.Label < b.Label
	})
	for _, sum := range s.hashOrder {
		doc.Hashes = append(doc.Hashes, cloneEntry(s.hashes[sum]))
	}
	return doc
}

// restore replaces the store contents from a serialized document.
func (s *MemoryStore) restore(doc document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.versions = make(map[Version]struct{}, len(doc.Versions))
	for _, v := range doc.Versions {
		s.versions[v] = struct{}{}
	}

	s.files = make(map[File]struct{}, len(doc.Files))
	s.fileOrder = s.fileOrder[:0]
	for _, f := range doc.Files {
		if _, dup := s.files[f]; dup {
			continue
		}
		s.files[f] = struct{}{}
		s.fileOrder = append(s.fileOrder, f)
	}

	s.hashes = make(map[string]*HashEntry, len(doc.Hashes))
	s.hashOrder = s.hashOrder[:0]
	for _, e := range doc.Hashes {
		if _, dup := s.hashes[e.Sum]; dup {
			continue
		}
		entry := cloneEntry(&e)
		s.hashes[e.Sum] = &entry
		s.hashOrder = append(s.hashOrder, e.Sum)
	}
}
