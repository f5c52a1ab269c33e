// FILE: returns.go
// Base return vector builder (C3): precomputes, for every date, "if an
// always-on strategy entered here, what is the bar-counted return and
// holding length under the given target/stop."
//
// Grounded on the teacher's backtest.go walk-forward loop (reading candles
// and tracking an open position to its target/stop/exit) generalized from
// one live strategy decision to a per-date base-case simulation, and on
// original_source/libs/pasearchalgolib/BacktestResultBaseGenerator.h for
// the exact in-sample/out-of-sample date clamping rule (supplemented
// feature 6).
package backtest

import (
	"time"

	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
)

// Side is the direction a base-case trade is simulated in.
type Side uint8

const (
	Long Side = iota
	Short
)

// RiskParams holds the symmetric target/stop used by both the base return
// builder and the shortcut backtester. R = profitTargetPct / stopLossPct is
// fixed for the whole run.
type RiskParams struct {
	ProfitTargetPct decimal.Decimal
	StopLossPct     decimal.Decimal
}

// R returns the target/stop ratio.
func (r RiskParams) R() decimal.Decimal {
	return decimal.SafeDiv(r.ProfitTargetPct, r.StopLossPct, decimal.Zero)
}

// Mode selects which window BaseReturns are fitted against.
type Mode uint8

const (
	InSample Mode = iota
	OutOfSample
	InSampleOutOfSample
)

// DateWindow bounds the in-sample and out-of-sample ranges a run is
// configured with. Dates outside the window selected by Mode are zeroed.
type DateWindow struct {
	ISStart, ISEnd   time.Time
	OOSStart, OOSEnd time.Time
}

func (w DateWindow) fits(t time.Time, m Mode) bool {
	inIS := !t.Before(w.ISStart) && !t.After(w.ISEnd)
	inOOS := !t.Before(w.OOSStart) && !t.After(w.OOSEnd)
	switch m {
	case InSample:
		return inIS
	case OutOfSample:
		return inOOS
	default: // InSampleOutOfSample
		return inIS || inOOS
	}
}

// BaseReturns is the per-date base-case simulation result: the realized
// percent return (as a fraction, e.g. 0.01 == 1%) and the number of bars
// the position was held, for every date d in 0..N.
type BaseReturns struct {
	Returns        []decimal.Decimal
	BarsInPosition []uint16
}

// DefaultHorizon is the forced-exit bar count used when neither the target
// nor the stop fires (spec §4.2, "forced exit e.g. 10-bar horizon").
const DefaultHorizon = 10

// Build simulates, for every date d (skipping the last bar, which has no
// next-bar open to enter on), a single trade entered at bar d+1's open with
// a symmetric target/stop, walking forward until target, stop, or the
// horizon fires. The result is deterministic given the price series, side,
// and risk parameters.
func Build(bs []bars.Bar, side Side, risk RiskParams, horizon int, mode Mode, window DateWindow) BaseReturns {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	n := len(bs)
	out := BaseReturns{
		Returns:        make([]decimal.Decimal, n),
		BarsInPosition: make([]uint16, n),
	}
	for d := 0; d < n; d++ {
		if d+1 >= n {
			continue // no next-bar open to enter on
		}
		if !window.fits(bs[d].Time, mode) {
			continue
		}
		ret, held := simulateTrade(bs, d+1, side, risk, horizon)
		out.Returns[d] = ret
		out.BarsInPosition[d] = held
	}
	return out
}

// simulateTrade walks forward from entryIdx (the bar whose open is the
// entry price) until the target, the stop, or the horizon fires.
func simulateTrade(bs []bars.Bar, entryIdx int, side Side, risk RiskParams, horizon int) (decimal.Decimal, uint16) {
	entry := bs[entryIdx].Open
	one := decimal.One
	var targetMult, stopMult decimal.Decimal
	if side == Long {
		targetMult = one.Add(risk.ProfitTargetPct)
		stopMult = one.Sub(risk.StopLossPct)
	} else {
		targetMult = one.Sub(risk.ProfitTargetPct)
		stopMult = one.Add(risk.StopLossPct)
	}
	target := decimal.Round(entry.Mul(targetMult))
	stop := decimal.Round(entry.Mul(stopMult))

	last := entryIdx
	for i := entryIdx; i < len(bs) && i < entryIdx+horizon; i++ {
		last = i
		hit, ret := barHits(bs[i], entry, target, stop, side)
		if hit {
			return ret, uint16(i - entryIdx + 1)
		}
	}
	// Forced exit at the close of the last bar walked.
	exitClose := bs[last].Close
	return decimal.Round(pctReturn(entry, exitClose, side)), uint16(last - entryIdx + 1)
}

func barHits(b bars.Bar, entry, target, stop decimal.Decimal, side Side) (bool, decimal.Decimal) {
	if side == Long {
		if b.High.GreaterThanOrEqual(target) {
			return true, decimal.Round(pctReturn(entry, target, side))
		}
		if b.Low.LessThanOrEqual(stop) {
			return true, decimal.Round(pctReturn(entry, stop, side))
		}
		return false, decimal.Zero
	}
	if b.Low.LessThanOrEqual(target) {
		return true, decimal.Round(pctReturn(entry, target, side))
	}
	if b.High.GreaterThanOrEqual(stop) {
		return true, decimal.Round(pctReturn(entry, stop, side))
	}
	return false, decimal.Zero
}

func pctReturn(entry, exit decimal.Decimal, side Side) decimal.Decimal {
	raw := decimal.SafeDiv(exit.Sub(entry), entry, decimal.Zero)
	if side == Short {
		return raw.Neg()
	}
	return raw
}
