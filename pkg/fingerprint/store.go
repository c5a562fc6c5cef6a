package fingerprint

import (
	"path/filepath"
	"strings"
)

// DefaultStaticExtensions lists the extensions of files likely to be served
// verbatim by a deployment and thus good fingerprint candidates.
var DefaultStaticExtensions = []string{".html", ".md", ".txt"}

// Store persists version, file and hash rows with idempotent upsert
// semantics. Implementations are append-only: no operation ever deletes or
// rewrites an existing row, beyond growing a hash row's versions set.
type Store interface {
	// RegisterVersions upserts one Version row per label. Existing
	// (technology, label) pairs are no-ops.
	RegisterVersions(technology string, labels []string) error

	// RegisterFile upserts a File row. An existing (technology, path)
	// pair is a no-op.
	RegisterFile(technology, path string) error

	// RecordHash creates the hash row for sum with versions = {version},
	// or appends version to the existing row's set when absent.
	// Calling it repeatedly with identical arguments is a no-op.
	RecordHash(sum, technology, version string) error

	// Ingest records a whole pipeline batch: all version labels first,
	// then a file row and a hash row per record.
	Ingest(technology string, labels []string, records []Record) error

	// AllHashes returns every hash row, in first-seen order.
	AllHashes() ([]HashEntry, error)

	// Lookup returns the hash row for sum, or an error wrapping
	// ErrNotFound.
	Lookup(sum string) (HashEntry, error)

	// StaticFilePaths returns the known file paths whose extension marks
	// them as static-file fingerprint candidates.
	StaticFilePaths() ([]string, error)

	// Close releases the store. Further calls return ErrClosed.
	Close() error
}

// staticExtensionSet builds a lowercase extension lookup set, falling back to
// DefaultStaticExtensions when exts is empty.
func staticExtensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultStaticExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}

func isStaticPath(path string, exts map[string]struct{}) bool {
	_, ok := exts[strings.ToLower(filepath.Ext(path))]
	return ok
}
