// FILE: matrix.go
// Sparse fact matrix (C2): one bit-vector per FactID, length N, 1 iff the
// fact held on that date.
//
// Grounded on original_source/libs/pasearchalgolib/UniqueSinglePAMatrix.h.
package bars

import "github.com/bits-and-blooms/bitset"

// Matrix is the read-only sparse fact matrix M[f,d]. Built once from a
// Generator's per-date fact lists, then shared read-only across every
// worker task (spec §5, "Shared resources").
type Matrix struct {
	n    int
	rows []*bitset.BitSet // indexed by FactID
}

// BuildMatrix materializes M from a Generator that has finished ingesting
// its bars. Every column of M is a subset of that date's observed facts;
// FactIDs never referenced on any date get an all-zero row.
func BuildMatrix(g *Generator) *Matrix {
	n := g.NumDates()
	rows := make([]*bitset.BitSet, len(g.factsByI))
	for i := range rows {
		rows[i] = bitset.New(uint(n))
	}
	for d := 0; d < n; d++ {
		for _, f := range g.PerDateFacts(d) {
			rows[f].Set(uint(d))
		}
	}
	return &Matrix{n: n, rows: rows}
}

// N returns the number of dates the matrix covers.
func (m *Matrix) N() int { return m.n }

// NumFacts returns how many distinct facts the matrix has rows for.
func (m *Matrix) NumFacts() int { return len(m.rows) }

// Row returns the bit-vector for FactID f. Panics if f is out of range — a
// programming error, per spec §4.3's "never fails; invariants checked...
// else panic" failure semantics.
func (m *Matrix) Row(f FactID) *bitset.BitSet {
	if int(f) >= len(m.rows) {
		panic("bars: FactID out of range")
	}
	return m.rows[f]
}

// Footprint computes the elementwise AND (conjunction) of the rows named
// by ids — the trading footprint of a FactSet. Invariant: depends only on
// the set of ids, not their order (spec §8, invariant 3).
func (m *Matrix) Footprint(ids []FactID) *bitset.BitSet {
	if len(ids) == 0 {
		return bitset.New(uint(m.n))
	}
	result := m.Row(ids[0]).Clone()
	for _, id := range ids[1:] {
		result = result.Intersection(m.Row(id))
	}
	return result
}
