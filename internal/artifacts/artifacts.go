// FILE: artifacts.go
// Package artifacts persists and reloads one run's survivor set so the
// CLI's `validate:<runid>` verb can re-run the permutation validator
// against a prior search without redoing the forward-stepwise search
// (spec §6, "Persisted run artifacts").
//
// Facts are stored as their structural (offset,field) pairs rather than
// FactIDs, since FactIDs are only meaningful relative to the Generator
// instance that produced them; reloading re-interns them against a freshly
// rebuilt Generator over the same source data.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
	"github.com/chidi150c/palsearch/internal/search"
)

// FactRef is a portable, generator-independent encoding of a bars.Fact.
type FactRef struct {
	LHSOffset uint8          `json:"lhs_offset"`
	LHSField  bars.PriceField `json:"lhs_field"`
	RHSOffset uint8          `json:"rhs_offset"`
	RHSField  bars.PriceField `json:"rhs_field"`
}

func toRef(f bars.Fact) FactRef {
	return FactRef{f.LHS.Offset, f.LHS.Field, f.RHS.Offset, f.RHS.Field}
}

func (r FactRef) toFact() bars.Fact {
	return bars.Fact{
		LHS: bars.BarRef{Offset: r.LHSOffset, Field: r.LHSField},
		RHS: bars.BarRef{Offset: r.RHSOffset, Field: r.RHSField},
	}
}

// SurvivorRecord is one persisted survivor: its FactSet rendered as
// portable FactRefs plus its baseline stats.
type SurvivorRecord struct {
	Facts     []FactRef       `json:"facts"`
	PF        decimal.Decimal `json:"pf"`
	Payoff    decimal.Decimal `json:"payoff"`
	PalProf   decimal.Decimal `json:"pal_prof"`
	Trades    uint32          `json:"trades"`
	MaxLosers uint32          `json:"max_losers"`
}

// Run is everything validate:<runid> needs to rebuild C1/C2/C3 against the
// original series and re-run C9 without re-running the search.
type Run struct {
	RunID       string           `json:"run_id"`
	CSVPath     string           `json:"csv_path"`
	Lookback    uint8            `json:"lookback"`
	SearchType  bars.SearchType  `json:"search_type"`
	Method      backtest.Method  `json:"method"`
	MinTrades   uint32           `json:"min_trades"`
	Side        backtest.Side    `json:"side"`
	ProfitTarget decimal.Decimal `json:"profit_target_pct"`
	StopLoss    decimal.Decimal  `json:"stop_loss_pct"`
	Survivors   []SurvivorRecord `json:"survivors"`
}

// FromCandidates builds persistable SurvivorRecords from live Candidates,
// using origFacts to translate each FactID into a portable FactRef.
func FromCandidates(cands []search.Candidate, origFacts []bars.Fact) []SurvivorRecord {
	out := make([]SurvivorRecord, 0, len(cands))
	for _, c := range cands {
		refs := make([]FactRef, 0, len(c.FactSet))
		for _, id := range c.FactSet {
			refs = append(refs, toRef(origFacts[id]))
		}
		out = append(out, SurvivorRecord{
			Facts: refs, PF: c.Stats.PF, Payoff: c.Stats.Payoff, PalProf: c.Stats.PalProf,
			Trades: c.Stats.Trades, MaxLosers: c.Stats.MaxLosers,
		})
	}
	return out
}

// ToCandidates translates persisted SurvivorRecords back into live
// Candidates against a freshly rebuilt Generator, skipping any survivor
// with a fact that (surprisingly) never occurs in the rebuilt table.
func ToCandidates(recs []SurvivorRecord, gen *bars.Generator) []search.Candidate {
	out := make([]search.Candidate, 0, len(recs))
	for i, r := range recs {
		ids := make([]bars.FactID, 0, len(r.Facts))
		ok := true
		for _, ref := range r.Facts {
			id, found := gen.Lookup(ref.toFact())
			if !found {
				ok = false
				break
			}
			ids = append(ids, id)
		}
		if !ok {
			continue
		}
		out = append(out, search.Candidate{
			FactSet: search.NewFactSet(ids...),
			Stats: backtestStatsOf(r),
			ID:    uint32(i),
		})
	}
	return out
}

func backtestStatsOf(r SurvivorRecord) backtest.Stats {
	return backtest.Stats{PF: r.PF, Payoff: r.Payoff, PalProf: r.PalProf, Trades: r.Trades, MaxLosers: r.MaxLosers}
}

// Dir is the directory persisted run artifacts are written under.
const Dir = "runs"

// Save writes run as "<Dir>/<runid>.json".
func Save(run Run) error {
	if err := os.MkdirAll(Dir, 0o755); err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}
	b, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}
	return os.WriteFile(filepath.Join(Dir, run.RunID+".json"), b, 0o644)
}

// Load reads "<Dir>/<runid>.json".
func Load(runID string) (Run, error) {
	b, err := os.ReadFile(filepath.Join(Dir, runID+".json"))
	if err != nil {
		return Run{}, fmt.Errorf("artifacts: %w", err)
	}
	var run Run
	if err := json.Unmarshal(b, &run); err != nil {
		return Run{}, fmt.Errorf("artifacts: %w", err)
	}
	return run, nil
}
