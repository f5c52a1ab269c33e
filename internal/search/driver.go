// FILE: driver.go
// Forward-stepwise driver (C8): depth 1..MAX_DEPTH, seeding pairs at depth
// 1 and extending survivors by one fact at each subsequent depth, with
// embarrassingly-parallel candidate evaluation fanned out over a bounded
// worker pool.
//
// Grounded on spec §4.7's algorithm directly; the worker-pool fan-out uses
// golang.org/x/sync/errgroup the way stadam23-Eve-flipper and
// leanlp-BTC-coinjoin use it for bounded concurrent work, since the
// teacher's own trader.go is a single-threaded event loop with no
// analogous fan-out to generalize from.
package search

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
)

// Config bundles every knob the driver needs across C5-C7.
type Config struct {
	MaxDepth          int
	MinTrades         uint32
	MaxInactivitySpan uint32
	Method            backtest.Method
	Stepping          SteppingConfig
	Survival          SurvivalConfig
	Threads           int
}

// DepthResult is the per-depth outcome the driver accumulates.
type DepthResult struct {
	Depth     int
	Survivors []Candidate
	Counters  Counters
}

// Run executes the full depth-bounded search and returns the accumulated
// survivors from every depth plus exclusion counters for the run summary.
func Run(ctx context.Context, m *bars.Matrix, base backtest.BaseReturns, cfg Config) ([]DepthResult, error) {
	redund := NewRedundancy(m)
	var seed []FactSet
	var depths []DepthResult

	numFacts := m.NumFacts()

	for depth := 1; depth <= cfg.MaxDepth; depth++ {
		var candidates []FactSet
		if depth == 1 {
			for i := 0; i < numFacts; i++ {
				for j := 0; j < numFacts; j++ {
					if i == j {
						continue
					}
					candidates = append(candidates, NewFactSet(bars.FactID(i), bars.FactID(j)))
				}
			}
		} else {
			for _, s := range seed {
				for c := 0; c < numFacts; c++ {
					id := bars.FactID(c)
					if s.Contains(id) {
						continue
					}
					candidates = append(candidates, s.Extend(id))
				}
			}
		}

		shards, counters, err := evaluateShards(ctx, m, base, cfg, candidates)
		if err != nil {
			return depths, err
		}
		merged := MergeShards(shards...)

		survivors := Filter(merged, cfg.Survival, m)
		depths = append(depths, DepthResult{Depth: depth, Survivors: survivors, Counters: counters})

		seed = Pass(merged, depth, cfg.MaxDepth, redund, cfg.Stepping)
		if len(seed) == 0 {
			break
		}
	}
	return depths, nil
}

// evaluateShards partitions candidates across a bounded worker pool, each
// worker owning one Processor (per spec §5's "backtest processor is
// per-worker"), and returns the per-worker pending shards plus combined
// exclusion counters.
func evaluateShards(ctx context.Context, m *bars.Matrix, base backtest.BaseReturns, cfg Config, candidates []FactSet) ([][]Candidate, Counters, error) {
	workers := cfg.Threads
	if workers <= 0 {
		workers = 1
	}
	if workers > len(candidates) && len(candidates) > 0 {
		workers = len(candidates)
	}
	if workers == 0 {
		return nil, Counters{}, nil
	}

	processors := make([]*Processor, workers)
	for w := range processors {
		processors[w] = NewProcessor(m, base, cfg.Method, cfg.MinTrades, cfg.MaxInactivitySpan)
	}

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := w; i < len(candidates); i += workers {
				processors[w].ProcessResult(candidates[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Counters{}, err
	}

	shards := make([][]Candidate, workers)
	var total Counters
	for w, p := range processors {
		shards[w] = p.Results()
		total.Add(p.Counters())
	}
	return shards, total, nil
}
