// FILE: render.go
// Pattern -> text emission: the engine's one external interface (spec §6,
// "Emitted pattern format").
//
// Grounded on original_source/libs/backtesting/LogPalPattern.cpp
// (supplemented feature 5): reproduces the header line, the IF/AND
// condition rendering, the BUY/SELL clause, and the fixed 130-dash
// separator verbatim.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
	"github.com/chidi150c/palsearch/internal/search"
)

// Separator is the fixed rule between emitted pattern blocks: six 20-dash
// groups plus one 10-dash group, 130 dashes total, matching
// LogPalPattern::LogPatternSeparator's six-plus-one WriteString calls.
const Separator = "" +
	"--------------------" +
	"--------------------" +
	"--------------------" +
	"--------------------" +
	"--------------------" +
	"--------------------" +
	"----------"

// Block renders one survivor as the legacy textual pattern block.
//
// The header's PL/PS fields keep the original's PercentLong/PercentShort
// labels (spec §6's wire format is fixed), but this engine has no statistic
// to put under them: PatternDescription in the discovery pipeline this is
// grounded on is allocated with both values null (ComparisonToPal.h's
// allocatePatternDescription passes 0 for both), since percent-long/short is
// computed elsewhere from a pattern's historical long vs. short occurrence
// split, a breakdown this engine's per-Side Stats never tracks. PL/PS are
// populated with PalProf% and PF instead — not a Percent{Long,Short}
// estimate, but the nearest per-candidate profitability figures available
// (see DESIGN.md).
func Block(src string, indexDate time.Time, c search.Candidate, side backtest.Side, risk backtest.RiskParams, facts []bars.Fact) string {
	var b strings.Builder

	palProfPct := decimal.Round(c.Stats.PalProf.Mul(decimal.Hundred))
	pf := decimal.Round(c.Stats.PF)

	fmt.Fprintf(&b, "{File:%s  Index:%d  Index DATE:%s  PL:%s%%  PS:%s%%  Trades:%d  CL:%d}\n",
		src, c.ID, indexDate.Format("20060102"), palProfPct.String(), pf.String(), c.Stats.Trades, c.Stats.MaxLosers)

	b.WriteString("IF ")
	for i, id := range c.FactSet {
		if i > 0 {
			b.WriteString(" AND ")
		}
		f := facts[id]
		fmt.Fprintf(&b, "%s > %s", f.LHS, f.RHS)
	}
	b.WriteByte('\n')

	sideWord, targetSign, stopSign := "BUY", "+", "-"
	if side == backtest.Short {
		sideWord, targetSign, stopSign = "SELL", "-", "+"
	}
	fmt.Fprintf(&b, "THEN %s NEXT BAR ON THE OPEN WITH\n", sideWord)
	fmt.Fprintf(&b, "PROFIT TARGET AT ENTRY PRICE %s%s %%\n", targetSign, decimal.Round(risk.ProfitTargetPct.Mul(decimal.Hundred)).String())
	fmt.Fprintf(&b, "AND STOP LOSS AT ENTRY PRICE %s%s %%\n", stopSign, decimal.Round(risk.StopLossPct.Mul(decimal.Hundred)).String())
	b.WriteString(Separator)
	b.WriteByte('\n')
	return b.String()
}

// Blocks renders every survivor in order, concatenated.
func Blocks(src string, indexDate time.Time, cands []search.Candidate, side backtest.Side, risk backtest.RiskParams, facts []bars.Fact) string {
	var b strings.Builder
	for _, c := range cands {
		b.WriteString(Block(src, indexDate, c, side, risk, facts))
	}
	return b.String()
}
