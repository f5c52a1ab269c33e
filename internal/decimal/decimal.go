// Package decimal collapses the engine's template-heavy numeric type family
// (spec §9, "Template-heavy numeric types → one Decimal alias") into a
// single fixed-point type chosen once, at build time.
package decimal

import "github.com/shopspring/decimal"

// Decimal is the one fixed-point numeric type used throughout bars, facts,
// returns and statistics. It is never mixed with float64 on the hot path.
type Decimal = decimal.Decimal

// Scale is the number of fractional digits the engine rounds to when a
// result is about to be compared, persisted, or rendered. The original
// template parameter is fixed at 7 digits minimum; 8 is used here to leave
// headroom for intermediate division results.
const Scale = 8

var (
	Zero      = decimal.Zero
	One       = decimal.NewFromInt(1)
	Hundred   = decimal.NewFromInt(100)
	MinusOne  = decimal.NewFromInt(-1)
)

// FromFloat64 builds a Decimal from a float64 input (bar ingestion is the
// only place floats are allowed to cross into Decimal territory).
func FromFloat64(f float64) Decimal {
	return decimal.NewFromFloat(f).Round(Scale)
}

// FromInt builds a Decimal from an integer count (trade counts, bar
// offsets promoted to Decimal for ratio arithmetic).
func FromInt(n int64) Decimal {
	return decimal.NewFromInt(n)
}

// FromString parses a Decimal from its text form (config-file fields).
func FromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

// Round rounds d to the engine's working scale (half away from zero).
func Round(d Decimal) Decimal {
	return d.Round(Scale)
}

// SafeDiv divides a by b, returning the given sentinel instead of panicking
// or propagating shopspring's divide-by-zero panic when b is zero.
func SafeDiv(a, b, sentinelOnZero Decimal) Decimal {
	if b.IsZero() {
		return sentinelOnZero
	}
	return Round(a.DivRound(b, int32(Scale)))
}

// Abs returns the absolute value of d.
func Abs(d Decimal) Decimal {
	return d.Abs()
}
