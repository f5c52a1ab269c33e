// FILE: validator.go
// Permutation validator (C9): multi-strategy Masters-style best-of
// permutation test producing per-strategy adjusted p-values.
//
// Grounded on spec §4.8 directly (no original_source file survived
// distillation for this component per _INDEX.md); reuses
// golang.org/x/sync/errgroup for per-permutation fan-out the same way
// internal/search's driver does, and internal/runctx's RNG so that two runs
// with an identical seed produce byte-identical p-values (spec §8,
// invariant 8).
package validate

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
	"github.com/chidi150c/palsearch/internal/search"
)

// Config bundles the inputs the validator needs to rebuild C1/C2/C3 against
// each permuted series.
type Config struct {
	Lookback        uint8
	SearchType      bars.SearchType
	Method          backtest.Method
	MinTrades       uint32
	Risk            backtest.RiskParams
	Side            backtest.Side
	Horizon         int
	Mode            backtest.Mode
	Window          backtest.DateWindow
	NumPermutations int
	Alpha           decimal.Decimal
	Threads         int
}

// Result is one survivor's adjusted significance outcome.
type Result struct {
	Candidate search.Candidate
	Side      backtest.Side
	PValue    decimal.Decimal
	Survives  bool
}

type permOutcome struct {
	tmax   decimal.Decimal
	forced bool // numerically indeterminate: conservative tie with every baseline
}

// Validate runs the Masters best-of permutation test over survivors and
// returns a Result per survivor, in the same order they were given.
//
// origGen is the Generator the survivors' FactSets were discovered against
// on the real data; it supplies the structural Fact each FactID names so
// every permutation's freshly-built, independently-indexed fact table can
// be searched for the same Fact (FactID assignment is generator-local and
// discovery-order dependent, so raw FactIDs cannot be reused across runs).
func Validate(ctx context.Context, rng *rand.Rand, originalBars []bars.Bar, origGen *bars.Generator, survivors []search.Candidate, cfg Config) ([]Result, error) {
	if cfg.NumPermutations < 1 {
		cfg.NumPermutations = 100
	}
	if len(survivors) == 0 {
		return nil, nil
	}
	origFacts := origGen.Facts()

	exceedCount := make([]int, len(survivors))

	workers := cfg.Threads
	if workers <= 0 {
		workers = 1
	}
	if workers > cfg.NumPermutations {
		workers = cfg.NumPermutations
	}

	outcomes := make([]permOutcome, cfg.NumPermutations)

	// Each permutation draws its own sub-RNG seeded from the run RNG so
	// concurrent goroutines don't race on a shared *rand.Rand, while the
	// whole sequence stays deterministic given the run seed (spec §5,
	// "Permutation draws must be seeded deterministically").
	subSeeds := make([]int64, cfg.NumPermutations)
	for i := range subSeeds {
		subSeeds[i] = rng.Int63()
	}

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for p := w; p < cfg.NumPermutations; p += workers {
				outcomes[p] = runOnePermutation(subSeeds[p], originalBars, origFacts, survivors, cfg)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, oc := range outcomes {
		for s, surv := range survivors {
			if oc.forced || oc.tmax.GreaterThanOrEqual(surv.Stats.PF) {
				exceedCount[s]++
			}
		}
	}

	denom := decimal.FromInt(int64(cfg.NumPermutations + 1))
	results := make([]Result, len(survivors))
	for s, surv := range survivors {
		pVal := decimal.Round(decimal.FromInt(int64(exceedCount[s] + 1)).DivRound(denom, int32(decimal.Scale)))
		results[s] = Result{
			Candidate: surv,
			Side:      cfg.Side,
			PValue:    pVal,
			Survives:  pVal.LessThanOrEqual(cfg.Alpha),
		}
	}
	return results, nil
}

// remapFactSet translates a FactSet discovered against origFacts into the
// equivalent FactIDs of permGen's own table. Returns ok=false if any
// member fact was never observed in the permuted series — in that case the
// conjunction can never fire, so the caller treats the candidate as a
// zero-trade strategy rather than calling the backtester.
func remapFactSet(fs search.FactSet, origFacts []bars.Fact, permGen *bars.Generator) ([]bars.FactID, bool) {
	ids := make([]bars.FactID, 0, len(fs))
	for _, id := range fs {
		pid, ok := permGen.Lookup(origFacts[id])
		if !ok {
			return nil, false
		}
		ids = append(ids, pid)
	}
	return ids, true
}

func runOnePermutation(seed int64, originalBars []bars.Bar, origFacts []bars.Fact, survivors []search.Candidate, cfg Config) (outcome permOutcome) {
	defer func() {
		if recover() != nil {
			outcome = permOutcome{forced: true}
		}
	}()

	localRng := rand.New(rand.NewSource(seed))
	permuted := Permute(localRng, originalBars)

	gen := bars.NewGenerator(cfg.Lookback, cfg.SearchType)
	for _, b := range permuted {
		if err := gen.PushBar(b); err != nil {
			return permOutcome{forced: true}
		}
	}
	matrix := bars.BuildMatrix(gen)
	base := backtest.Build(permuted, cfg.Side, cfg.Risk, cfg.Horizon, cfg.Mode, cfg.Window)

	tmax := decimal.Zero
	for _, surv := range survivors {
		ids, ok := remapFactSet(surv.FactSet, origFacts, gen)
		if !ok {
			continue // fact never occurred in this permutation: zero-trade, contributes nothing
		}
		stats := backtest.Backtest(matrix, ids, base, cfg.Method, cfg.MinTrades)
		if stats.PF.GreaterThan(tmax) {
			tmax = stats.PF
		}
	}
	return permOutcome{tmax: tmax}
}
