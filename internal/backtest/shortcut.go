// FILE: shortcut.go
// Shortcut backtester (C4): converts a conjunction of atomic facts into a
// trade stream and performance statistics without instantiating a full
// order-book simulator.
//
// Grounded on original_source/libs/pasearchalgolib/ShortcutSearchAlgoBacktester.h
// for the exact PF sentinel values (supplemented feature 2) and the
// non-pyramiding "skip ahead to the end of the open position" trade walk.
package backtest

import (
	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
)

// Method selects the trade-overlap handling. PlainVanilla is the
// non-pyramiding default; Pyramiding lets every signal date open an
// independent trade even while another is open.
//
// Per spec §9's Open Question, the Pyramiding path exists in the original
// but is unused by the forward-stepwise driver; it is implemented here and
// selectable by configuration, never defaulted to.
type Method uint8

const (
	PlainVanilla Method = iota
	Pyramiding
)

// Profit-factor sentinels, exactly as ShortcutSearchAlgoBacktester.h: zero
// when there were no winning trades at all, ONE_HUNDRED when there were
// winners but zero losing trades (an "infinite" PF capped at a large finite
// value so it still sorts and compares predictably).
var (
	ProfitFactorSentinelZero = decimal.Zero
	ProfitFactorSentinelMax  = decimal.Hundred
)

// Stats is the candidate result's performance record (spec §3, Candidate result).
type Stats struct {
	PF            decimal.Decimal
	Payoff        decimal.Decimal
	PalProf       decimal.Decimal
	Trades        uint32
	MaxLosers     uint32
	MaxInactivity uint32
}

// Backtest runs the shortcut backtester over the conjunction of the given
// FactIDs. minTrades degenerates PF to the zero sentinel when too few
// trades closed (spec §4.3's third PF case).
//
// Invariant checked: every row of m must have length N == len(base.Returns),
// else this panics — a programming error (spec §4.3 failure semantics).
func Backtest(m *bars.Matrix, ids []bars.FactID, base BaseReturns, method Method, minTrades uint32) Stats {
	n := m.N()
	if len(base.Returns) != n || len(base.BarsInPosition) != n {
		panic("backtest: base return vector length mismatch with matrix N")
	}

	occurrences := m.Footprint(ids)

	var sumWinners, sumLosers decimal.Decimal
	var winCount, lossCount, trades uint32
	var maxLosers, curLosers uint32
	var maxInactivity, curInactivity uint32
	skipUntil := -1

	for d := 0; d < n; d++ {
		if !occurrences.Test(uint(d)) {
			curInactivity++
			continue
		}
		if method == PlainVanilla && d < skipUntil {
			continue
		}
		ret := base.Returns[d]
		if ret.IsZero() && base.BarsInPosition[d] == 0 {
			// No base-case trade was ever simulated for this date
			// (e.g. it fell outside the IS/OOS window or had no
			// next-bar open); a signal here is not a trade.
			continue
		}

		trades++
		if curInactivity > maxInactivity {
			maxInactivity = curInactivity
		}
		curInactivity = 0

		switch {
		case ret.IsPositive():
			sumWinners = sumWinners.Add(ret)
			winCount++
			curLosers = 0
		case ret.IsNegative():
			sumLosers = sumLosers.Add(ret)
			lossCount++
			curLosers++
			if curLosers > maxLosers {
				maxLosers = curLosers
			}
		default:
			curLosers = 0
		}

		if method == PlainVanilla {
			skipUntil = d + int(base.BarsInPosition[d])
		}
	}
	if curInactivity > maxInactivity {
		maxInactivity = curInactivity
	}

	absLosers := decimal.Abs(sumLosers)

	var pf decimal.Decimal
	switch {
	case trades == 0 || trades < minTrades:
		pf = ProfitFactorSentinelZero
	case sumWinners.IsZero():
		pf = ProfitFactorSentinelZero
	case absLosers.IsZero():
		pf = ProfitFactorSentinelMax
	default:
		pf = decimal.SafeDiv(sumWinners, absLosers, ProfitFactorSentinelZero)
	}

	palProf := decimal.SafeDiv(sumWinners, sumWinners.Add(absLosers), decimal.Zero)

	var avgWin, avgLoss decimal.Decimal
	if winCount > 0 {
		avgWin = decimal.SafeDiv(sumWinners, decimal.FromInt(int64(winCount)), decimal.Zero)
	}
	if lossCount > 0 {
		avgLoss = decimal.SafeDiv(absLosers, decimal.FromInt(int64(lossCount)), decimal.Zero)
	}
	payoff := decimal.SafeDiv(avgWin, avgLoss, ProfitFactorSentinelMax)

	return Stats{
		PF:            pf,
		Payoff:        payoff,
		PalProf:       palProf,
		Trades:        trades,
		MaxLosers:     maxLosers,
		MaxInactivity: maxInactivity,
	}
}
