package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashtheplanet/hashtheplanet/pkg/fingerprint"
	"github.com/hashtheplanet/hashtheplanet/pkg/vcs"
)

type fakeRepo struct {
	tags    []vcs.Tag
	tagsErr error
	files   map[string][]vcs.Entry // tag name -> baseline entries
	diffs   map[string][]vcs.Entry // "a..b" -> changed entries
	blobs   map[string][]byte
	closed  bool
}

func (f *fakeRepo) Tags() ([]vcs.Tag, error) {
	return f.tags, f.tagsErr
}

func (f *fakeRepo) TagFiles(tag vcs.Tag) ([]vcs.Entry, error) {
	entries, ok := f.files[tag.Name]
	if !ok {
		return nil, fmt.Errorf("no tree for tag %s", tag.Name)
	}
	return entries, nil
}

func (f *fakeRepo) DiffFiles(a, b vcs.Tag) ([]vcs.Entry, error) {
	return f.diffs[a.Name+".."+b.Name], nil
}

func (f *fakeRepo) BlobBytes(addr string) ([]byte, error) {
	data, ok := f.blobs[addr]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", addr)
	}
	return data, nil
}

func (f *fakeRepo) Close() error {
	f.closed = true
	return nil
}

type fakeCloner struct {
	repo *fakeRepo
	err  error
}

func (f *fakeCloner) Clone(context.Context, string) (vcs.Repository, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.repo, nil
}

// wordpressRepo reproduces a two-release history: LICENSE and setup.cfg at
// 1.2.3, LICENSE rewritten at 1.2.4.
func wordpressRepo() *fakeRepo {
	return &fakeRepo{
		tags: []vcs.Tag{
			{Name: "1.2.3", Commit: "c1"},
			{Name: "1.2.4", Commit: "c2"},
		},
		files: map[string][]vcs.Entry{
			"1.2.3": {
				{Path: "LICENSE", Blob: "b1"},
				{Path: "setup.cfg", Blob: "b2"},
			},
		},
		diffs: map[string][]vcs.Entry{
			"1.2.3..1.2.4": {
				{Path: "LICENSE", Blob: "b3"},
			},
		},
		blobs: map[string][]byte{
			"b1": []byte("license content"),
			"b2": []byte("setup.cfg content"),
			"b3": []byte("modified license content"),
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	repo := wordpressRepo()
	store := fingerprint.NewMemoryStore()
	svc := &Service{Cloner: &fakeCloner{repo: repo}, Store: store}

	require.NoError(t, svc.Run(context.Background(), "wordpress", "https://example.org/wp.git"))
	assert.True(t, repo.closed, "working copy must be released")

	expected := map[string][]string{
		Digest([]byte("license content")):          {"1.2.3"},
		Digest([]byte("setup.cfg content")):        {"1.2.3"},
		Digest([]byte("modified license content")): {"1.2.4"},
	}
	for sum, versions := range expected {
		entry, err := store.Lookup(sum)
		require.NoError(t, err, "missing hash row for %s", sum)
		assert.Equal(t, "wordpress", entry.Technology)
		assert.Equal(t, versions, entry.Versions)
	}

	all, err := store.AllHashes()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	files, err := store.Files("wordpress")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"LICENSE", "setup.cfg"}, files)

	labels, err := store.Versions("wordpress")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1.2.3", "1.2.4"}, labels)
}

func TestRunIdenticalContentAcrossVersionsCollapses(t *testing.T) {
	repo := wordpressRepo()
	// 1.2.4 reintroduces the exact baseline LICENSE bytes under a new blob
	repo.diffs["1.2.3..1.2.4"] = []vcs.Entry{{Path: "LICENSE", Blob: "b4"}}
	repo.blobs["b4"] = []byte("license content")

	store := fingerprint.NewMemoryStore()
	svc := &Service{Cloner: &fakeCloner{repo: repo}, Store: store}
	require.NoError(t, svc.Run(context.Background(), "wordpress", "url"))

	entry, err := store.Lookup(Digest([]byte("license content")))
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.3", "1.2.4"}, entry.Versions)

	all, err := store.AllHashes()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRunCloneFailureWritesNothing(t *testing.T) {
	store := fingerprint.NewMemoryStore()
	svc := &Service{
		Cloner: &fakeCloner{err: errors.New("remote unreachable")},
		Store:  store,
	}

	err := svc.Run(context.Background(), "wordpress", "https://example.org/wp.git")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire repository")

	all, lookupErr := store.AllHashes()
	require.NoError(t, lookupErr)
	assert.Empty(t, all)

	labels, lookupErr := store.Versions("wordpress")
	require.NoError(t, lookupErr)
	assert.Empty(t, labels)
}

func TestRunNoTagsAborts(t *testing.T) {
	repo := &fakeRepo{}
	store := fingerprint.NewMemoryStore()
	svc := &Service{Cloner: &fakeCloner{repo: repo}, Store: store}

	err := svc.Run(context.Background(), "wordpress", "url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tags")
	assert.True(t, repo.closed, "working copy must be released on failure too")

	labels, lookupErr := store.Versions("wordpress")
	require.NoError(t, lookupErr)
	assert.Empty(t, labels)
}

func TestRunDropsUnreadableBlobs(t *testing.T) {
	repo := wordpressRepo()
	delete(repo.blobs, "b2")

	store := fingerprint.NewMemoryStore()
	svc := &Service{Cloner: &fakeCloner{repo: repo}, Store: store}
	require.NoError(t, svc.Run(context.Background(), "wordpress", "url"))

	all, err := store.AllHashes()
	require.NoError(t, err)
	assert.Len(t, all, 2, "the unreadable entry is dropped, the batch survives")

	_, err = store.Lookup(Digest([]byte("setup.cfg content")))
	assert.ErrorIs(t, err, fingerprint.ErrNotFound)
}

func TestRunHonorsTagWindow(t *testing.T) {
	repo := wordpressRepo()
	repo.tags = append(repo.tags, vcs.Tag{Name: "1.3.0", Commit: "c3"})
	repo.diffs["1.2.4..1.3.0"] = []vcs.Entry{{Path: "setup.cfg", Blob: "b5"}}
	repo.blobs["b5"] = []byte("new setup")

	store := fingerprint.NewMemoryStore()
	svc := &Service{
		Cloner: &fakeCloner{repo: repo},
		Store:  store,
		First:  "1.2.3",
		Last:   "1.3.0",
	}
	require.NoError(t, svc.Run(context.Background(), "wordpress", "url"))

	labels, err := store.Versions("wordpress")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1.2.3", "1.2.4"}, labels)

	_, err = store.Lookup(Digest([]byte("new setup")))
	assert.ErrorIs(t, err, fingerprint.ErrNotFound)
}

func TestRunRequiresConfiguration(t *testing.T) {
	svc := &Service{}
	require.Error(t, svc.Run(context.Background(), "wordpress", "url"))

	svc = &Service{Cloner: &fakeCloner{repo: wordpressRepo()}, Store: fingerprint.NewMemoryStore()}
	err := svc.Run(context.Background(), "", "url")
	require.Error(t, err)
	assert.ErrorIs(t, err, fingerprint.ErrInvalidInput)
}
