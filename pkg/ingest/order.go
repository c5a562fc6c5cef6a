package ingest

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/hashtheplanet/hashtheplanet/pkg/vcs"
)

// TagOrder orders a tag sequence before the pipeline diffs adjacent pairs.
// Pairwise diffing assumes the sequence is chronological; repositories whose
// reference order is not can plug in a different order.
type TagOrder interface {
	Sort(tags []vcs.Tag)
}

// NativeOrder keeps the repository's native reference order untouched.
type NativeOrder struct{}

// Sort implements TagOrder.
func (NativeOrder) Sort([]vcs.Tag) {}

// SemverOrder sorts tags by semantic version. Tag names that do not parse as
// semver sort before all parseable ones, keeping their relative order.
type SemverOrder struct{}

// Sort implements TagOrder.
func (SemverOrder) Sort(tags []vcs.Tag) {
	parsed := make(map[string]*semver.Version, len(tags))
	for _, tag := range tags {
		if v, err := semver.NewVersion(tag.Name); err == nil {
			parsed[tag.Name] = v
		}
	}
	sort.SliceStable(tags, func(i, j int) bool {
		vi, oki := parsed[tags[i].Name]
		vj, okj := parsed[tags[j].Name]
		switch {
		case oki && okj:
			return vi.LessThan(vj)
		case !oki && okj:
			return true
		default:
			return false
		}
	})
}

// OrderByName resolves a configured tag order name.
func OrderByName(name string) (TagOrder, error) {
	switch name {
	case "", "native":
		return NativeOrder{}, nil
	case "semver":
		return SemverOrder{}, nil
	default:
		return nil, fmt.Errorf("unknown tag order %q", name)
	}
}

// VersionsBetween returns every label from the ordered list starting at
// first, up to but excluding last. An unknown first label yields nil.
func VersionsBetween(first, last string, labels []string) []string {
	var out []string
	collecting := false
	for _, label := range labels {
		if label == first {
			collecting = true
		}
		if label == last {
			break
		}
		if collecting {
			out = append(out, label)
		}
	}
	return out
}
