package matrix

import (
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/document"
	"github.com/thirtytwobits/the-cmake-preset-matrix/internal/presets"
)

// Clean levels for Merge.
const (
	// CleanNone keeps managed records that were not regenerated.
	CleanNone = 0
	// CleanStale drops managed records that were not regenerated.
	CleanStale = 1
	// CleanAll drops every managed record before merging.
	CleanAll = 2
)

// Merge folds generated records of one visibility into a group's existing
// collection and returns the new collection. Records the group does not
// manage, common records and records of the other visibility are kept as
// they are. Managed records that were regenerated are deep-merged in place,
// so fields added by hand survive. Generated records with new names are
// appended in generation order.
func Merge(records *document.Seq, generated []*document.Map, group *presets.Group, sep string, hidden bool, clean int) *document.Seq {
	pending := make(map[string]*document.Map, len(generated))
	for _, r := range generated {
		name, _ := r.String("name")
		pending[name] = r
	}

	out := document.NewSeq()
	if records != nil {
		for _, item := range records.All() {
			existing, ok := item.(*document.Map)
			if !ok || !managed(existing, group, sep, hidden) {
				out.Append(item)
				continue
			}
			if clean >= CleanAll {
				continue
			}
			name, _ := existing.String("name")
			if r, found := pending[name]; found {
				document.DeepMerge(existing, r)
				delete(pending, name)
				out.Append(existing)
				continue
			}
			if clean < CleanStale {
				out.Append(existing)
			}
		}
	}
	for _, r := range generated {
		name, _ := r.String("name")
		if _, ok := pending[name]; ok {
			out.Append(r)
			delete(pending, name)
		}
	}
	return out
}

// managed reports whether a record is owned by the generator for the given
// visibility: its name carries the group prefix and is not common, and its
// hidden flag matches. A record without a hidden flag is visible.
func managed(record *document.Map, group *presets.Group, sep string, hidden bool) bool {
	name, ok := record.String("name")
	if !ok || !group.IsManaged(name, sep) {
		return false
	}
	flag, ok := record.Get("hidden")
	if !ok {
		return !hidden
	}
	b, ok := flag.(document.Bool)
	return ok && bool(b) == hidden
}
