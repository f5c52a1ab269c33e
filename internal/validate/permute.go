// FILE: permute.go
// Implements "Permute Market Changes" (spec §4.8): shuffles day-to-day bar
// changes while preserving the first bar's open, so the permuted series has
// the same return distribution but no temporal structure.
//
// Each bar's four intrabar ratios (open/high/low/close relative to the
// previous close) are shuffled together as one unit, preserving each
// original bar's internal OHLC shape while destroying the sequence in which
// those shapes occurred — the detail spec §4.8 leaves unspecified and that
// this repo resolves by keeping intrabar structure intact per bar.
package validate

import (
	"math/rand"

	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
)

type barRatios struct {
	open, high, low, close decimal.Decimal
}

// Permute returns a new bar slice with the same length and timestamps as
// original, whose first bar is unchanged and whose subsequent bars are
// reconstructed from a random permutation of the original's bar-to-bar
// change ratios.
func Permute(rng *rand.Rand, original []bars.Bar) []bars.Bar {
	n := len(original)
	if n < 2 {
		out := make([]bars.Bar, n)
		copy(out, original)
		return out
	}

	ratios := make([]barRatios, n-1)
	for i := 1; i < n; i++ {
		prevClose := original[i-1].Close
		ratios[i-1] = barRatios{
			open:  decimal.SafeDiv(original[i].Open, prevClose, decimal.One),
			high:  decimal.SafeDiv(original[i].High, prevClose, decimal.One),
			low:   decimal.SafeDiv(original[i].Low, prevClose, decimal.One),
			close: decimal.SafeDiv(original[i].Close, prevClose, decimal.One),
		}
	}

	perm := rng.Perm(len(ratios))

	out := make([]bars.Bar, n)
	out[0] = original[0]
	prevClose := original[0].Close
	for i := 1; i < n; i++ {
		r := ratios[perm[i-1]]
		out[i] = bars.Bar{
			Time:   original[i].Time,
			Open:   decimal.Round(prevClose.Mul(r.open)),
			High:   decimal.Round(prevClose.Mul(r.high)),
			Low:    decimal.Round(prevClose.Mul(r.low)),
			Close:  decimal.Round(prevClose.Mul(r.close)),
			Volume: original[i].Volume,
		}
		prevClose = out[i].Close
	}
	return out
}
