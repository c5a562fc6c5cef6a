package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"
)

// GitCloner clones remotes bare into temporary directories under BaseDir.
// An empty BaseDir falls back to the system temp directory.
type GitCloner struct {
	BaseDir string
}

// Clone implements Cloner. A failed clone leaves nothing behind.
func (c GitCloner) Clone(ctx context.Context, url string) (Repository, error) {
	dir, err := os.MkdirTemp(c.BaseDir, "htp-clone-*")
	if err != nil {
		return nil, fmt.Errorf("create clone directory: %w", err)
	}

	log.Debug().Str("url", url).Str("dir", dir).Msg("cloning repository")
	repo, err := git.PlainCloneContext(ctx, dir, true, &git.CloneOptions{
		URL:  url,
		Tags: git.AllTags,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("clone %s: %w", url, err)
	}

	return &gitRepository{repo: repo, dir: dir}, nil
}

type gitRepository struct {
	repo *git.Repository
	dir  string
}

// Tags implements Repository. Annotated tags are peeled to their commit.
func (r *gitRepository) Tags() ([]Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("enumerate tags: %w", err)
	}
	defer iter.Close()

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		commit := ref.Hash()
		if tagObj, tagErr := r.repo.TagObject(ref.Hash()); tagErr == nil {
			peeled, peelErr := tagObj.Commit()
			if peelErr != nil {
				return fmt.Errorf("peel tag %s: %w", ref.Name().Short(), peelErr)
			}
			commit = peeled.Hash
		} else if !errors.Is(tagErr, plumbing.ErrObjectNotFound) {
			return fmt.Errorf("resolve tag %s: %w", ref.Name().Short(), tagErr)
		}
		tags = append(tags, Tag{Name: ref.Name().Short(), Commit: commit.String()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// TagFiles implements Repository.
func (r *gitRepository) TagFiles(tag Tag) ([]Entry, error) {
	tree, err := r.treeOf(tag)
	if err != nil {
		return nil, err
	}

	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()

	var entries []Entry
	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("walk tree of %s: %w", tag.Name, err)
		}
		if !isRegularFile(entry.Mode) {
			continue
		}
		entries = append(entries, Entry{Path: name, Blob: entry.Hash.String()})
	}
	return entries, nil
}

// DiffFiles implements Repository.
func (r *gitRepository) DiffFiles(a, b Tag) ([]Entry, error) {
	treeA, err := r.treeOf(a)
	if err != nil {
		return nil, err
	}
	treeB, err := r.treeOf(b)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(treeA, treeB)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", a.Name, b.Name, err)
	}
	return changedEntries(changes), nil
}

// BlobBytes implements Repository.
func (r *gitRepository) BlobBytes(addr string) ([]byte, error) {
	blob, err := r.repo.BlobObject(plumbing.NewHash(addr))
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", addr, err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", addr, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", addr, err)
	}
	return data, nil
}

// Close implements Repository.
func (r *gitRepository) Close() error {
	return os.RemoveAll(r.dir)
}

func (r *gitRepository) treeOf(tag Tag) (*object.Tree, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(tag.Commit))
	if err != nil {
		return nil, fmt.Errorf("commit of tag %s: %w", tag.Name, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of tag %s: %w", tag.Name, err)
	}
	return tree, nil
}

// changedEntries keeps the new side of each change. An empty To side means
// the file was deleted, which produces no entry.
func changedEntries(changes object.Changes) []Entry {
	var entries []Entry
	for _, change := range changes {
		if change.To.Name == "" {
			continue
		}
		if !isRegularFile(change.To.TreeEntry.Mode) {
			continue
		}
		entries = append(entries, Entry{
			Path: change.To.Name,
			Blob: change.To.TreeEntry.Hash.String(),
		})
	}
	return entries
}

// isRegularFile reports whether mode denotes regular file content. Trees,
// submodules and symlinks carry no fingerprintable bytes of their own.
func isRegularFile(mode filemode.FileMode) bool {
	return mode == filemode.Regular || mode == filemode.Executable || mode == filemode.Deprecated
}
