// FILE: factset.go
// FactSet is a sorted conjunction of FactIDs — the strategy representation
// used from C5 through C9. Grounded on
// original_source/libs/pasearchalgolib/BacktestProcessor.h's
// StrategyRepresentationType (vector<unsigned int>), kept sorted here so
// two FactSets are equal iff element-equal regardless of construction order
// (spec §3).
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chidi150c/palsearch/internal/bars"
)

// FactSet is the strategy representation: a sorted set of FactIDs
// interpreted as their conjunction (AND). The empty set is not a strategy.
type FactSet []bars.FactID

// NewFactSet builds a sorted, de-duplicated FactSet from the given ids.
func NewFactSet(ids ...bars.FactID) FactSet {
	fs := append(FactSet(nil), ids...)
	sort.Slice(fs, func(i, j int) bool { return fs[i] < fs[j] })
	fs = dedupeSorted(fs)
	return fs
}

func dedupeSorted(fs FactSet) FactSet {
	if len(fs) < 2 {
		return fs
	}
	out := fs[:1]
	for _, id := range fs[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

// Extend returns a new FactSet with id inserted, sorted, unless id is
// already a member (in which case fs is returned unchanged).
func (fs FactSet) Extend(id bars.FactID) FactSet {
	for _, existing := range fs {
		if existing == id {
			return fs
		}
	}
	return NewFactSet(append(append(FactSet(nil), fs...), id)...)
}

// Contains reports whether id is a member of fs.
func (fs FactSet) Contains(id bars.FactID) bool {
	for _, existing := range fs {
		if existing == id {
			return true
		}
	}
	return false
}

// Equal reports element-wise equality. Both FactSets must already be sorted
// (true of every FactSet constructed via NewFactSet/Extend).
func (fs FactSet) Equal(other FactSet) bool {
	if len(fs) != len(other) {
		return false
	}
	for i := range fs {
		if fs[i] != other[i] {
			return false
		}
	}
	return true
}

// Key returns a comparable, lexicographically-ordered string key so
// FactSets can be used as map keys and sorted deterministically (spec §5,
// "deterministic if and only if the shard-merge step sorts candidates by
// their FactSet lexicographic key").
func (fs FactSet) Key() string {
	var b strings.Builder
	for i, id := range fs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}

// Less gives FactSets a total order for deterministic shard merging:
// lexicographic by element, with a set that is a strict prefix of another
// sorting first.
func (fs FactSet) Less(other FactSet) bool {
	for i := 0; i < len(fs) && i < len(other); i++ {
		if fs[i] != other[i] {
			return fs[i] < other[i]
		}
	}
	return len(fs) < len(other)
}
