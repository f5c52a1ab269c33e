// FILE: types.go
// Package bars implements the bar buffer and comparison generator (C1) and
// the sparse fact matrix (C2) from the engine's data model.
//
// Grounded on the teacher's strategy.go Candle struct for the bar shape,
// promoted from float64 to decimal.Decimal fields, and on
// original_source/libs/pasearchalgolib/ComparisonsGenerator.h and
// UniqueSinglePAMatrix.h for the fact-generation and matrix-storage rules.
package bars

import (
	"fmt"
	"time"

	"github.com/chidi150c/palsearch/internal/decimal"
)

// Bar is one OHLCV record. Immutable after ingest.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume uint64
}

// PriceField is a pure function of one bar, tagged so it can be compared,
// hashed, and rendered.
type PriceField uint8

const (
	Open PriceField = iota
	High
	Low
	Close
	Volume
	Meander
	IBS1
	IBS2
	IBS3

	numPriceFields
)

// String renders a field the way the emitted pattern text format expects
// (see render.Block / original_source/libs/backtesting/LogPalPattern.cpp).
func (f PriceField) String() string {
	switch f {
	case Open:
		return "OPEN"
	case High:
		return "HIGH"
	case Low:
		return "LOW"
	case Close:
		return "CLOSE"
	case Volume:
		return "VOLUME"
	case Meander:
		return "MEANDER"
	case IBS1:
		return "IBS1"
	case IBS2:
		return "IBS2"
	case IBS3:
		return "IBS3"
	default:
		return "UNKNOWN"
	}
}

// Value evaluates a field against one bar. Meander and the IBS (internal
// bar strength) variants are derived fields over the bar's own range; the
// IBS variants degrade to zero on a zero-range bar rather than dividing by
// zero.
func (f PriceField) Value(b Bar) decimal.Decimal {
	switch f {
	case Open:
		return b.Open
	case High:
		return b.High
	case Low:
		return b.Low
	case Close:
		return b.Close
	case Volume:
		return decimal.FromInt(int64(b.Volume))
	case Meander:
		return decimal.Round(b.High.Add(b.Low).Div(decimal.FromInt(2)))
	case IBS1:
		// (Close-Low)/(High-Low): where in the day's range the close sits.
		return decimal.SafeDiv(b.Close.Sub(b.Low), b.High.Sub(b.Low), decimal.Zero)
	case IBS2:
		// (Close-Open)/(High-Low): net directional move relative to range.
		return decimal.SafeDiv(b.Close.Sub(b.Open), b.High.Sub(b.Low), decimal.Zero)
	case IBS3:
		// (High-Close)/(High-Low): how far the close sits below the high.
		return decimal.SafeDiv(b.High.Sub(b.Close), b.High.Sub(b.Low), decimal.Zero)
	default:
		return decimal.Zero
	}
}

// SearchType selects which PriceFields participate in comparison
// generation. Values mirror original_source's ComparisonType enum exactly
// (supplemented feature 7): CloseOnly=0, OpenClose=1, HighLow=2, Ohlc=3,
// Extended=4.
type SearchType uint8

const (
	CloseOnly SearchType = iota
	OpenClose
	HighLow
	Ohlc
	Extended
)

// ParseSearchType parses the CLI's <search-type 0..4> positional argument.
func ParseSearchType(n int) (SearchType, error) {
	if n < 0 || n > int(Extended) {
		return 0, fmt.Errorf("search-type must be 0..4, got %d", n)
	}
	return SearchType(n), nil
}

// Fields returns the PriceFields participating in this search type.
func (t SearchType) Fields() []PriceField {
	switch t {
	case CloseOnly:
		return []PriceField{Close}
	case OpenClose:
		return []PriceField{Open, Close}
	case HighLow:
		return []PriceField{High, Low}
	case Ohlc:
		return []PriceField{Open, High, Low, Close}
	case Extended:
		return []PriceField{Open, High, Low, Close, Meander, IBS1, IBS2, IBS3}
	default:
		return nil
	}
}

// BarRef addresses one (offset, field) combination. Offset 0 is the most
// recently completed bar.
type BarRef struct {
	Offset uint8
	Field  PriceField
}

// String renders a BarRef the way the emitted pattern text format expects:
// "<FIELD> OF <offset> BARS AGO".
func (r BarRef) String() string {
	return fmt.Sprintf("%s OF %d BARS AGO", r.Field, r.Offset)
}

// less gives BarRef a total order so Facts can be compared lexicographically.
func (r BarRef) less(o BarRef) bool {
	if r.Offset != o.Offset {
		return r.Offset < o.Offset
	}
	return r.Field < o.Field
}

// Fact is an atomic "A > B" comparison. Its semantics are
// eval(fact, history) = history[lhs] > history[rhs].
//
// Canonical form: the comparison generator only ever records the direction
// that was actually observed to hold on a given date (see generator.go), so
// a constructed Fact is canonical by construction — canonicalize(f) == f
// holds trivially rather than by a runtime swap (Open Question decision,
// see DESIGN.md).
type Fact struct {
	LHS BarRef
	RHS BarRef
}

// String renders "<lhs> > <rhs>" for pattern emission.
func (f Fact) String() string {
	return fmt.Sprintf("%s > %s", f.LHS, f.RHS)
}

// FactID is a dense handle assigned in first-observed order.
type FactID uint32
