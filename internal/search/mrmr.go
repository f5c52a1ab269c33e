// FILE: mrmr.go
// Stepping policy (C6): max-relevance-min-redundancy greedy selection.
//
// Grounded on original_source/libs/pasearchalgolib/SteppingPolicy.h
// (MutualInfoSteppingPolicy) and libs/pasearchalgo/valarraymutualizer.h for
// the O(1)-amortized running-max redundancy cache (mIndexedSums, ported as
// the redMax slice in Pass below — supplemented feature 4). Per spec §9's Open
// Question, only the *Max family is implemented; the arithmetic-mean
// initRedundancy variant is confirmed vestigial and left out.
package search

import (
	"sort"

	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
)

// Redundancy precomputes the pairwise trading-footprint similarity
// R[i,j] = 1 - mean(|M[i,·] - M[j,·]|) lazily, on demand, with a cache —
// a deliberate departure from "precompute the full |F|×|F| matrix up
// front": spec §5 itself calls out that a dense R degrades to O(|F|²)
// memory and must be chunked past 20,000 facts, so an on-demand cache that
// never materializes unused pairs is the safer default at any scale.
type Redundancy struct {
	matrix *bars.Matrix
	cache  map[[2]bars.FactID]decimal.Decimal
}

// NewRedundancy builds a redundancy cache bound to m.
func NewRedundancy(m *bars.Matrix) *Redundancy {
	return &Redundancy{matrix: m, cache: make(map[[2]bars.FactID]decimal.Decimal)}
}

func (r *Redundancy) key(a, b bars.FactID) [2]bars.FactID {
	if a <= b {
		return [2]bars.FactID{a, b}
	}
	return [2]bars.FactID{b, a}
}

// Similarity returns R[a,b], computing and caching it on first request.
func (r *Redundancy) Similarity(a, b bars.FactID) decimal.Decimal {
	if a == b {
		return decimal.One
	}
	k := r.key(a, b)
	if v, ok := r.cache[k]; ok {
		return v
	}
	rowA := r.matrix.Row(a)
	rowB := r.matrix.Row(b)
	xor := rowA.SymmetricDifference(rowB)
	n := r.matrix.N()
	var frac decimal.Decimal
	if n > 0 {
		frac = decimal.SafeDiv(decimal.FromInt(int64(xor.Count())), decimal.FromInt(int64(n)), decimal.Zero)
	}
	sim := decimal.Round(decimal.One.Sub(frac))
	r.cache[k] = sim
	return sim
}

// pairwiseMaxRed is max_{a in A, b in B} R[a,b].
func (r *Redundancy) pairwiseMaxRed(a, b FactSet) decimal.Decimal {
	best := decimal.Zero
	for _, x := range a {
		for _, y := range b {
			s := r.Similarity(x, y)
			if s.GreaterThan(best) {
				best = s
			}
		}
	}
	return best
}

// SteppingConfig holds the mRMR knobs from the search configuration.
type SteppingConfig struct {
	BeamWidth                int // K
	ActivityMultiplier       decimal.Decimal
	StepRedundancyMultiplier decimal.Decimal
	RedundancyFilter         decimal.Decimal // similarity at/above which a candidate is excluded
	N                        int             // number of dates, for activity normalization
	InverseSurvivalFilter    decimal.Decimal // optional; zero value disables the inverse branch
	UseInverseSurvival       bool
}

// isDegenerate excludes PF == 0 or PF == ONE_HUNDRED results, and, when
// configured, results whose PF clears the inverse-survival threshold (spec
// §9's Open Question: exposed as an optional selector, semantics otherwise
// undocumented upstream).
func isDegenerate(c Candidate, cfg SteppingConfig) bool {
	if c.Stats.PF.IsZero() || c.Stats.PF.Equal(backtest.ProfitFactorSentinelMax) {
		return true
	}
	if cfg.UseInverseSurvival && c.Stats.PF.GreaterThanOrEqual(cfg.InverseSurvivalFilter) {
		return true
	}
	return false
}

// Pass runs one stepping round: sort by palProf, greedily select up to K'
// items trading relevance against redundancy with already-selected items,
// skipping degenerate and duplicate-FactSet candidates.
func Pass(results []Candidate, step, maxDepth int, redund *Redundancy, cfg SteppingConfig) []FactSet {
	eligible := make([]Candidate, 0, len(results))
	for _, c := range results {
		if !isDegenerate(c, cfg) {
			eligible = append(eligible, c)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].Stats.PalProf.GreaterThan(eligible[j].Stats.PalProf)
	})

	kPrime := beamWidth(cfg.BeamWidth, step, maxDepth)
	if kPrime <= 0 || len(eligible) == 0 {
		return nil
	}

	n := len(eligible)
	redMax := make([]decimal.Decimal, n) // running max redundancy to anything selected so far
	taken := make([]bool, n)

	activityOf := func(c Candidate) decimal.Decimal {
		if cfg.N == 0 {
			return decimal.Zero
		}
		return decimal.Round(cfg.ActivityMultiplier.Mul(decimal.FromInt(int64(c.Stats.Trades))).Div(decimal.FromInt(int64(cfg.N))))
	}

	var selected []FactSet
	selectedKeys := make(map[string]bool)
	halfAlpha := decimal.Round(cfg.ActivityMultiplier.Div(decimal.FromInt(2)))

	for len(selected) < kPrime {
		bestIdx := -1
		var bestScore decimal.Decimal
		for i := 0; i < n; i++ {
			if taken[i] {
				continue
			}
			c := eligible[i]
			if selectedKeys[c.FactSet.Key()] {
				taken[i] = true
				continue
			}
			if len(selected) > 0 && redMax[i].GreaterThanOrEqual(cfg.RedundancyFilter) {
				continue
			}
			// Early-break: since eligible is sorted descending by palProf,
			// once relevance has fallen more than alpha/2 below the best
			// score found so far, no later (lower-relevance) candidate can
			// close that gap either, so stop scanning this round.
			if bestIdx != -1 && c.Stats.PalProf.Add(halfAlpha).LessThan(bestScore) {
				break
			}
			var redundancy decimal.Decimal
			if len(selected) > 0 {
				redundancy = decimal.Round(redMax[i].Mul(cfg.StepRedundancyMultiplier))
			}
			score := decimal.Round(c.Stats.PalProf.Add(activityOf(c)).Sub(redundancy))
			if bestIdx == -1 || score.GreaterThan(bestScore) {
				bestIdx = i
				bestScore = score
			}
		}
		if bestIdx == -1 {
			break
		}
		chosen := eligible[bestIdx]
		taken[bestIdx] = true
		selectedKeys[chosen.FactSet.Key()] = true
		selected = append(selected, chosen.FactSet)

		// Update the running-max redundancy cache (the IndexedSum port):
		// O(|A|·|B|) per remaining candidate, not O(sel·|A|·|B|).
		for i := 0; i < n; i++ {
			if taken[i] {
				continue
			}
			v := redund.pairwiseMaxRed(eligible[i].FactSet, chosen.FactSet)
			if v.GreaterThan(redMax[i]) {
				redMax[i] = v
			}
		}
	}
	return selected
}

func beamWidth(k, step, maxDepth int) int {
	if maxDepth <= 0 {
		return k
	}
	frac := 1.0 - float64(step)/float64(maxDepth)
	if frac < 0 {
		frac = 0
	}
	out := int(float64(k) * frac)
	if out < 0 {
		out = 0
	}
	return out
}
