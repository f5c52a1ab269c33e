// FILE: generator.go
// Comparison generator (C1): maintains a circular buffer of the last L bars
// and, for each new bar, emits every (offset,field) > (offset,field) fact
// that holds, assigning dense FactIDs in first-observed order.
//
// Grounded on original_source/libs/pasearchalgolib/ComparisonsGenerator.h:
// self-pairs are excluded only for High/Low-involving combinations and
// identical-field combinations on the same bar offset; cross-offset
// same-field comparisons (Close[0] > Close[1]) are not excluded
// (supplemented feature 1, see SPEC_FULL.md / DESIGN.md).
package bars

import "errors"

// ErrOutOfOrder is returned when a bar's timestamp does not strictly
// follow the previous one (spec §6, DataOrderError).
var ErrOutOfOrder = errors.New("bars: out-of-order or duplicate timestamp")

type address struct {
	offset uint8
	field  PriceField
}

// Generator owns the circular buffer, the fact table, and the per-date
// fact occurrence lists that matrix.go materializes into bit-vectors.
type Generator struct {
	lookback   uint8
	searchType SearchType
	addresses  []address // the fixed address space for this lookback/searchType

	buf []Bar // buf[0] is offset 0 (most recent completed bar)

	factID   map[Fact]FactID
	factsByI []Fact

	// perDate[d] lists the FactIDs observed on date index d, in the order
	// they were first produced that date. Matrix materialization turns
	// this into bit-vectors once ingestion finishes.
	perDate [][]FactID

	lastTime   *int64 // unix nanos of the previously pushed bar; nil before first push
	dateIndex  int
}

// NewGenerator builds a comparison generator over a lookback window of
// `lookback` bars (offsets 0..lookback-1) restricted to the fields named by
// searchType.
func NewGenerator(lookback uint8, searchType SearchType) *Generator {
	g := &Generator{
		lookback:   lookback,
		searchType: searchType,
		factID:     make(map[Fact]FactID),
	}
	g.buildAddressSpace()
	return g
}

func (g *Generator) buildAddressSpace() {
	fields := g.searchType.Fields()
	for off := uint8(0); off < g.lookback; off++ {
		for _, f := range fields {
			g.addresses = append(g.addresses, address{offset: off, field: f})
		}
	}
}

// excludedSelfPair reports whether comparing a against b is a same-bar pair
// the original generator skips: identical (offset,field) addresses, or any
// same-offset pair where either side is High or Low (High/Low are extrema
// of the bar's own range, so e.g. HIGH[0] > OPEN[0] or LOW[0] > CLOSE[0]
// are excluded the same as HIGH[0] > LOW[0]).
func excludedSelfPair(a, b address) bool {
	if a.offset != b.offset {
		return false
	}
	if a.field == b.field {
		return true
	}
	isExtremum := func(x address) bool { return x.field == High || x.field == Low }
	return isExtremum(a) || isExtremum(b)
}

// PushBar advances the circular buffer by one bar and records every fact
// observed on this date. Dates are assigned 0..N-1 in push order.
func (g *Generator) PushBar(b Bar) error {
	if g.lastTime != nil {
		nt := b.Time.UnixNano()
		if nt <= *g.lastTime {
			return ErrOutOfOrder
		}
		*g.lastTime = nt
	} else {
		nt := b.Time.UnixNano()
		g.lastTime = &nt
	}

	// Step 1/2/3: age every buffered bar by one offset, dropping anything
	// that falls off the back of the window, then insert the new bar at
	// offset 0.
	g.buf = append([]Bar{b}, g.buf...)
	if len(g.buf) > int(g.lookback) {
		g.buf = g.buf[:g.lookback]
	}

	today := g.observeFacts()
	g.perDate = append(g.perDate, today)
	g.dateIndex++
	return nil
}

// observeFacts enumerates the address-space cartesian product, skipping
// excluded self-pairs, and for each address pair evaluates which direction
// (if either) actually held on the current buffer contents.
func (g *Generator) observeFacts() []FactID {
	n := len(g.addresses)
	var today []FactID
	for i := 0; i < n; i++ {
		ai := g.addresses[i]
		if int(ai.offset) >= len(g.buf) {
			continue
		}
		va := ai.field.Value(g.buf[ai.offset])
		for j := i + 1; j < n; j++ {
			aj := g.addresses[j]
			if int(aj.offset) >= len(g.buf) {
				continue
			}
			if excludedSelfPair(ai, aj) {
				continue
			}
			vb := aj.field.Value(g.buf[aj.offset])

			var f Fact
			switch {
			case va.GreaterThan(vb):
				f = Fact{LHS: BarRef{Offset: ai.offset, Field: ai.field}, RHS: BarRef{Offset: aj.offset, Field: aj.field}}
			case vb.GreaterThan(va):
				f = Fact{LHS: BarRef{Offset: aj.offset, Field: aj.field}, RHS: BarRef{Offset: ai.offset, Field: ai.field}}
			default:
				continue // tie: neither direction holds
			}
			today = append(today, g.internFact(f))
		}
	}
	return today
}

// internFact returns f's FactID, assigning a fresh dense id on first sight.
func (g *Generator) internFact(f Fact) FactID {
	if id, ok := g.factID[f]; ok {
		return id
	}
	id := FactID(len(g.factsByI))
	g.factID[f] = id
	g.factsByI = append(g.factsByI, f)
	return id
}

// Facts returns the fact table built so far, indexed by FactID.
func (g *Generator) Facts() []Fact { return g.factsByI }

// Lookup returns the FactID a structurally-identical Fact was assigned in
// this generator's table, if it was ever observed. Used to translate a
// FactSet discovered against one bar series (e.g. the original data) into
// the equivalent FactIDs of a different generator instance built over a
// permuted series (internal/validate's per-permutation rebuild), since
// FactID assignment is generator-local and order-of-discovery dependent.
func (g *Generator) Lookup(f Fact) (FactID, bool) {
	id, ok := g.factID[f]
	return id, ok
}

// NumDates returns how many bars have been pushed (N in the data model).
func (g *Generator) NumDates() int { return g.dateIndex }

// PerDateFacts returns the FactIDs observed on date d.
func (g *Generator) PerDateFacts(d int) []FactID { return g.perDate[d] }
