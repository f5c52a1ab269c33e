// FILE: processor.go
// Backtest processor (C5): evaluates a candidate strategy (FactSet), applies
// cheap minimum-activity prefilters, and stores passing results in an
// append-only per-worker shard. A top-level Merge step combines shards
// deterministically.
//
// Grounded on original_source/libs/pasearchalgolib/BacktestProcessor.h
// (processResult, findInVector-style equality) and spec §5's "per-worker
// processor, top-level reducer merges shards" concurrency model.
package search

import (
	"sort"

	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
)

// Candidate is a strategy result that survived the processor's cheap
// prefilters. IDs are unset (zero) until MergeShards assigns dense ids.
type Candidate struct {
	FactSet FactSet
	Stats   backtest.Stats
	ID      uint32
}

// Counters tallies non-fatal exclusions for the run summary (spec §7).
// Processor increments BelowMinTrades and Inactive. Nothing in this package
// increments Degenerate or DuplicateFootprint: Pass drops degenerate results
// and Filter collapses footprint duplicates without counting them, so both
// fields stay zero.
type Counters struct {
	Degenerate         int
	BelowMinTrades     int
	Inactive           int
	DuplicateFootprint int
}

func (c *Counters) Add(o Counters) {
	c.Degenerate += o.Degenerate
	c.BelowMinTrades += o.BelowMinTrades
	c.Inactive += o.Inactive
	c.DuplicateFootprint += o.DuplicateFootprint
}

// Processor is a single worker's view: no internal locking, intended to be
// owned by exactly one goroutine and merged afterward.
type Processor struct {
	matrix            *bars.Matrix
	base              backtest.BaseReturns
	method            backtest.Method
	minTrades         uint32
	maxInactivitySpan uint32

	pending  []Candidate
	counters Counters
}

// NewProcessor builds a processor bound to the given matrix/base-returns
// and the cheap-prefilter thresholds.
func NewProcessor(m *bars.Matrix, base backtest.BaseReturns, method backtest.Method, minTrades, maxInactivitySpan uint32) *Processor {
	return &Processor{matrix: m, base: base, method: method, minTrades: minTrades, maxInactivitySpan: maxInactivitySpan}
}

// ProcessResult runs the shortcut backtester over fs and, if it clears the
// cheap prefilters (trades >= minTrades, maxInactivity <= maxInactivitySpan),
// appends it to this worker's pending shard.
func (p *Processor) ProcessResult(fs FactSet) {
	stats := backtest.Backtest(p.matrix, []bars.FactID(fs), p.base, p.method, p.minTrades)
	if stats.Trades < p.minTrades {
		p.counters.BelowMinTrades++
		return
	}
	if stats.MaxInactivity > p.maxInactivitySpan {
		p.counters.Inactive++
		return
	}
	p.pending = append(p.pending, Candidate{FactSet: fs, Stats: stats})
}

// Results returns this shard's pending candidates (ids not yet assigned).
func (p *Processor) Results() []Candidate { return p.pending }

// Counters returns this shard's exclusion tallies.
func (p *Processor) Counters() Counters { return p.counters }

// ClearAll resets the processor for the next depth.
func (p *Processor) ClearAll() {
	p.pending = nil
	p.counters = Counters{}
}

// MergeShards concatenates every worker's pending candidates, sorts them by
// FactSet lexicographic key for determinism (spec §5, "Ordering
// guarantees"), and assigns dense ids in that order. It also collapses
// candidates with the same FactSet, which the driver submits routinely:
// depth 1 submits both orderings of every pair, and at later depths two
// seeds extended by different facts can reach the same set.
func MergeShards(shards ...[]Candidate) []Candidate {
	var all []Candidate
	for _, s := range shards {
		all = append(all, s...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FactSet.Less(all[j].FactSet) })

	out := all[:0:0]
	seen := make(map[string]bool, len(all))
	var nextID uint32
	for _, c := range all {
		key := c.FactSet.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		c.ID = nextID
		nextID++
		out = append(out, c)
	}
	return out
}
