// Package vcs wraps the go-git library behind the narrow surface the
// ingestion pipeline needs: bare-clone a remote, enumerate tags, walk one
// tag's tree, diff two tags, and fetch blob bytes by content address.
package vcs

import "context"

// Tag is one release reference: a tag name and the hex hash of the commit it
// points to (peeled for annotated tags).
type Tag struct {
	Name   string
	Commit string
}

// Entry is a regular file observed in a tree or on the new side of a diff,
// identified by path and git content address (blob hash).
type Entry struct {
	Path string
	Blob string
}

// Repository is an acquired local working copy.
type Repository interface {
	// Tags returns the repository's tags in native reference order. No
	// semantic sort is applied.
	Tags() ([]Tag, error)

	// TagFiles walks the full tree of the tag's commit and returns every
	// regular file. Directories, submodules and symlinks are excluded.
	TagFiles(tag Tag) ([]Entry, error)

	// DiffFiles returns the entries whose content changed between the two
	// tags, as seen from the new (b) side. Pure deletions produce no
	// entry.
	DiffFiles(a, b Tag) ([]Entry, error)

	// BlobBytes returns the raw bytes of the blob at the given content
	// address. The lookup is repository-handle relative; it never touches
	// the process working directory.
	BlobBytes(addr string) ([]byte, error)

	// Close releases the working copy, removing its temporary directory.
	Close() error
}

// Cloner acquires a remote repository into a local working copy.
type Cloner interface {
	Clone(ctx context.Context, url string) (Repository, error)
}
