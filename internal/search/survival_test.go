package search_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
	"github.com/chidi150c/palsearch/internal/search"
)

func decreasingMatrix(t *testing.T, n int) *bars.Matrix {
	t.Helper()
	g := bars.NewGenerator(2, bars.CloseOnly)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := decimal.FromFloat64(float64(n - i))
		require.NoError(t, g.PushBar(bars.Bar{Time: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}))
	}
	return bars.BuildMatrix(g)
}

func candidate(ids ...bars.FactID) search.Candidate {
	return search.Candidate{FactSet: search.NewFactSet(ids...), Stats: backtest.Stats{
		PF: decimal.FromFloat64(3), PalProf: decimal.FromFloat64(0.8), Payoff: decimal.FromFloat64(2), MaxLosers: 1, Trades: 10,
	}}
}

func baseCfg() search.SurvivalConfig {
	return search.SurvivalConfig{
		ProfitFactorCriterion:        decimal.FromFloat64(2),
		PalProfitabilitySafetyFactor: decimal.FromFloat64(0.5),
		MaxConsecutiveLosers:         3,
		R:                            decimal.FromFloat64(1),
	}
}

func TestFilterRejectsOnTooManyConsecutiveLosers(t *testing.T) {
	m := decreasingMatrix(t, 5)
	c := candidate(0)
	c.Stats.MaxLosers = 99
	out := search.Filter([]search.Candidate{c}, baseCfg(), m)
	assert.Empty(t, out)
}

func TestFilterRejectsBelowProfitFactorCriterion(t *testing.T) {
	m := decreasingMatrix(t, 5)
	c := candidate(0)
	c.Stats.PF = decimal.FromFloat64(1.5) // below the criterion of 2
	out := search.Filter([]search.Candidate{c}, baseCfg(), m)
	assert.Empty(t, out)
}

func TestFilterDedupesByFactSetKey(t *testing.T) {
	m := decreasingMatrix(t, 5)
	a := candidate(0)
	b := candidate(0)
	out := search.Filter([]search.Candidate{a, b}, baseCfg(), m)
	assert.Len(t, out, 1)
}

func TestFilterPassesQualifyingCandidate(t *testing.T) {
	m := decreasingMatrix(t, 5)
	out := search.Filter([]search.Candidate{candidate(0)}, baseCfg(), m)
	assert.Len(t, out, 1)
}
