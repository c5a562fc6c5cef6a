// Package fingerprint holds the content-addressable fingerprint database:
// three append-only tables (version, file, hash) keyed so that identical file
// bytes observed across many releases collapse into a single hash row.
package fingerprint

// Version identifies a released snapshot of a technology.
// Unique key = (Technology, Label). Never mutated or deleted.
type Version struct {
	Technology string `yaml:"technology"`
	Label      string `yaml:"label"`
}

// File identifies a path ever observed under a technology, independent of
// content. Unique key = (Technology, Path). Never deleted.
type File struct {
	Technology string `yaml:"technology"`
	Path       string `yaml:"path"`
}

// HashEntry is one row of the fingerprint index: the sha256 digest of file
// bytes, the technology that first produced that content, and the
// deduplicated set of version labels under which the content was observed.
type HashEntry struct {
	Sum        string   `yaml:"hash" json:"hash"`
	Technology string   `yaml:"technology" json:"technology"`
	Versions   []string `yaml:"versions" json:"versions"`
}

// HasVersion reports whether label is already a member of the entry's
// versions set.
func (e HashEntry) HasVersion(label string) bool {
	for _, v := range e.Versions {
		if v == label {
			return true
		}
	}
	return false
}

// Record is one hashed pipeline output: a path observed at a version whose
// bytes digest to Sum.
type Record struct {
	Path    string
	Version string
	Sum     string
}
