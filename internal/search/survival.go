// FILE: survival.go
// Survival filter (C7): retains candidates meeting the profitability and
// risk thresholds, then deduplicates by FactSet and trading footprint.
//
// Grounded on original_source/libs/pasearchalgolib/SurvivalPolicy.h for the
// exact threshold formulas (supplemented feature 3): profRequirement =
// PF/(PF+R) scaled by the safety factor, payoffRequirement = R*0.95.
package search

import (
	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
)

// SurvivalConfig holds the §3 "search configuration" fields this filter
// consumes.
type SurvivalConfig struct {
	ProfitFactorCriterion        decimal.Decimal // C
	PalProfitabilitySafetyFactor decimal.Decimal
	MaxConsecutiveLosers         uint32
	R                            decimal.Decimal // risk.R(), target/stop ratio
}

// Filter returns the subset of results clearing every criterion, with
// FactSet duplicates collapsed first and trading-footprint duplicates
// collapsed second (spec §4.6).
func Filter(results []Candidate, cfg SurvivalConfig, m *bars.Matrix) []Candidate {
	profReq := decimal.Round(cfg.PalProfitabilitySafetyFactor.Mul(
		decimal.SafeDiv(cfg.ProfitFactorCriterion, cfg.ProfitFactorCriterion.Add(cfg.R), decimal.Zero)))
	payoffReq := decimal.Round(cfg.R.Mul(decimal.FromFloat64(0.95)))

	var passing []Candidate
	for _, c := range results {
		if c.Stats.MaxLosers > cfg.MaxConsecutiveLosers {
			continue
		}
		if !c.Stats.PF.GreaterThan(cfg.ProfitFactorCriterion) {
			continue
		}
		if !c.Stats.PalProf.GreaterThan(profReq) {
			continue
		}
		if !c.Stats.Payoff.GreaterThan(payoffReq) {
			continue
		}
		passing = append(passing, c)
	}

	// Dedup by sorted FactSet (already the canonical form — FactSet is
	// always constructed sorted).
	seenSets := make(map[string]bool, len(passing))
	deduped := passing[:0:0]
	for _, c := range passing {
		key := c.FactSet.Key()
		if seenSets[key] {
			continue
		}
		seenSets[key] = true
		deduped = append(deduped, c)
	}

	// Dedup by trading footprint: two different FactSets that happen to
	// fire on exactly the same dates are the same strategy in effect.
	seenFootprints := make(map[string]bool, len(deduped))
	final := deduped[:0:0]
	for _, c := range deduped {
		fp := m.Footprint([]bars.FactID(c.FactSet))
		key := fp.DumpAsBits()
		if seenFootprints[key] {
			continue
		}
		seenFootprints[key] = true
		final = append(final, c)
	}
	return final
}

// RiskR derives the R the survival filter needs from risk parameters,
// kept here rather than importing backtest into every caller.
func RiskR(r backtest.RiskParams) decimal.Decimal { return r.R() }
