package render_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
	"github.com/chidi150c/palsearch/internal/render"
	"github.com/chidi150c/palsearch/internal/search"
)

func TestSeparatorIsOneHundredThirtyDashes(t *testing.T) {
	require.Len(t, render.Separator, 130)
	assert.Equal(t, strings.Repeat("-", 130), render.Separator)
}

func TestBlockHeaderFields(t *testing.T) {
	facts := []bars.Fact{
		{LHS: bars.BarRef{Offset: 0, Field: bars.Close}, RHS: bars.BarRef{Offset: 1, Field: bars.Close}},
	}
	c := search.Candidate{
		ID:      7,
		FactSet: search.NewFactSet(bars.FactID(0)),
		Stats: backtest.Stats{
			PF:        decimal.FromFloat64(2.5),
			PalProf:   decimal.FromFloat64(0.75),
			Trades:    10,
			MaxLosers: 3,
		},
	}
	risk := backtest.RiskParams{ProfitTargetPct: decimal.FromFloat64(0.05), StopLossPct: decimal.FromFloat64(0.05)}
	indexDate := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	out := render.Block("daily.csv", indexDate, c, backtest.Long, risk, facts)

	require.Contains(t, out, "{File:daily.csv  Index:7  Index DATE:20240304  PL:75%  PS:2.5%  Trades:10  CL:3}\n")
	require.Contains(t, out, "IF CLOSE OF 0 BARS AGO > CLOSE OF 1 BARS AGO\n")
	require.Contains(t, out, "THEN BUY NEXT BAR ON THE OPEN WITH\n")
	require.Contains(t, out, "PROFIT TARGET AT ENTRY PRICE +5 %\n")
	require.Contains(t, out, "AND STOP LOSS AT ENTRY PRICE -5 %\n")
	require.True(t, strings.HasSuffix(out, render.Separator+"\n"))
}

func TestBlockRendersSellForShortSide(t *testing.T) {
	facts := []bars.Fact{
		{LHS: bars.BarRef{Offset: 0, Field: bars.Close}, RHS: bars.BarRef{Offset: 1, Field: bars.Close}},
	}
	c := search.Candidate{FactSet: search.NewFactSet(bars.FactID(0)), Stats: backtest.Stats{}}
	risk := backtest.RiskParams{}
	out := render.Block("x.csv", time.Now(), c, backtest.Short, risk, facts)
	assert.Contains(t, out, "THEN SELL NEXT BAR ON THE OPEN WITH\n")
}

func TestBlocksConcatenatesEverySurvivor(t *testing.T) {
	facts := []bars.Fact{
		{LHS: bars.BarRef{Offset: 0, Field: bars.Close}, RHS: bars.BarRef{Offset: 1, Field: bars.Close}},
	}
	cands := []search.Candidate{
		{ID: 1, FactSet: search.NewFactSet(bars.FactID(0)), Stats: backtest.Stats{}},
		{ID: 2, FactSet: search.NewFactSet(bars.FactID(0)), Stats: backtest.Stats{}},
	}
	out := render.Blocks("x.csv", time.Now(), cands, backtest.Long, backtest.RiskParams{}, facts)
	assert.Equal(t, 2, strings.Count(out, "Index:"))
	assert.Equal(t, 2, strings.Count(out, render.Separator))
}
