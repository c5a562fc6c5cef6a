// Package ingest orchestrates the fingerprint pipeline: acquire a repository,
// enumerate its tags, walk the baseline tree, diff the remaining tag pairs,
// hash the changed blobs and persist the result.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hashtheplanet/hashtheplanet/pkg/fingerprint"
	"github.com/hashtheplanet/hashtheplanet/pkg/vcs"
)

// fileMeta is a pipeline entry before hashing: a path observed at a version,
// still identified by its git content address.
type fileMeta struct {
	path    string
	version string
	blob    string
}

// Service runs the ingestion pipeline for one technology at a time.
type Service struct {
	Cloner vcs.Cloner
	Store  fingerprint.Store

	// Order arranges tags before pairwise diffing. Nil keeps the native
	// reference order.
	Order TagOrder

	// First and Last restrict the run to the half-open tag interval
	// [First, Last). Both empty means the full history.
	First string
	Last  string
}

// Run ingests the tagged history of repoURL under the given technology
// label. A clone failure aborts before anything is written to the store.
// Per-blob retrieval failures are dropped and logged; they never abort the
// run. The working copy is released unconditionally once acquired.
func (s *Service) Run(ctx context.Context, technology, repoURL string) error {
	if s.Cloner == nil {
		return errors.New("cloner is not configured")
	}
	if s.Store == nil {
		return errors.New("store is not configured")
	}
	if technology == "" {
		return fingerprint.NewInvalidInputError("technology", "technology label is required")
	}

	repo, err := s.Cloner.Clone(ctx, repoURL)
	if err != nil {
		return fmt.Errorf("acquire repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("release working copy")
		}
	}()

	tags, err := repo.Tags()
	if err != nil {
		return fmt.Errorf("enumerate tags: %w", err)
	}
	if len(tags) == 0 {
		return fmt.Errorf("repository %s has no tags", repoURL)
	}

	if s.Order != nil {
		s.Order.Sort(tags)
	}
	tags = s.window(tags)
	if len(tags) == 0 {
		return fmt.Errorf("no tags of %s fall between %q and %q", repoURL, s.First, s.Last)
	}

	log.Info().Str("technology", technology).Int("tags", len(tags)).
		Str("baseline", tags[0].Name).Msg("ingesting tagged history")

	metas, err := collectMetas(repo, tags)
	if err != nil {
		return err
	}

	records := hashEntries(repo, metas)

	labels := make([]string, len(tags))
	for i, tag := range tags {
		labels[i] = tag.Name
	}
	if err := s.Store.Ingest(technology, labels, records); err != nil {
		return fmt.Errorf("persist fingerprints: %w", err)
	}

	log.Info().Str("technology", technology).
		Int("files", len(metas)).Int("hashed", len(records)).
		Msg("ingestion complete")
	return nil
}

// window applies the optional [First, Last) tag interval.
func (s *Service) window(tags []vcs.Tag) []vcs.Tag {
	if s.First == "" && s.Last == "" {
		return tags
	}
	first := s.First
	if first == "" {
		first = tags[0].Name
	}
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	keep := make(map[string]struct{})
	for _, name := range VersionsBetween(first, s.Last, names) {
		keep[name] = struct{}{}
	}
	var out []vcs.Tag
	for _, tag := range tags {
		if _, ok := keep[tag.Name]; ok {
			out = append(out, tag)
		}
	}
	return out
}

// collectMetas walks the baseline tag in full, then only the content
// differences of each adjacent tag pair. Hashing just the changed blobs is
// what keeps runs over hundreds of releases tractable.
func collectMetas(repo vcs.Repository, tags []vcs.Tag) ([]fileMeta, error) {
	baseline, err := repo.TagFiles(tags[0])
	if err != nil {
		return nil, fmt.Errorf("walk baseline tag %s: %w", tags[0].Name, err)
	}

	metas := make([]fileMeta, 0, len(baseline))
	for _, entry := range baseline {
		metas = append(metas, fileMeta{path: entry.Path, version: tags[0].Name, blob: entry.Blob})
	}

	for i := 0; i+1 < len(tags); i++ {
		changed, err := repo.DiffFiles(tags[i], tags[i+1])
		if err != nil {
			return nil, fmt.Errorf("diff tags %s..%s: %w", tags[i].Name, tags[i+1].Name, err)
		}
		for _, entry := range changed {
			metas = append(metas, fileMeta{path: entry.Path, version: tags[i+1].Name, blob: entry.Blob})
		}
	}
	return metas, nil
}

// hashEntries retrieves each blob and digests it. A failed retrieval drops
// that entry only; the batch always survives.
func hashEntries(repo vcs.Repository, metas []fileMeta) []fingerprint.Record {
	records := make([]fingerprint.Record, 0, len(metas))
	for _, meta := range metas {
		data, err := repo.BlobBytes(meta.blob)
		if err != nil {
			log.Warn().Err(err).Str("path", meta.path).Str("version", meta.version).
				Str("blob", meta.blob).Msg("skipping unreadable blob")
			continue
		}
		records = append(records, fingerprint.Record{
			Path:    meta.path,
			Version: meta.version,
			Sum:     Digest(data),
		})
	}
	return records
}

// Digest returns the hex sha256 fingerprint of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
