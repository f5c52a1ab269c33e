package backtest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/palsearch/internal/backtest"
	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
)

func flatBars(n int, start, step float64) []bars.Bar {
	out := make([]bars.Bar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price := decimal.FromFloat64(start + step*float64(i))
		out[i] = bars.Bar{Time: base.AddDate(0, 0, i), Open: price, High: price, Low: price, Close: price}
	}
	return out
}

func wideWindow() backtest.DateWindow {
	return backtest.DateWindow{
		ISStart: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), ISEnd: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
		OOSStart: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), OOSEnd: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func allFactsMatrix(n int) *bars.Matrix {
	g := bars.NewGenerator(2, bars.CloseOnly)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := decimal.FromFloat64(float64(n - i))
		_ = g.PushBar(bars.Bar{Time: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c})
	}
	return bars.BuildMatrix(g)
}

func TestBuildSkipsLastBarForNoNextOpen(t *testing.T) {
	bs := flatBars(5, 100, 1)
	base := backtest.Build(bs, backtest.Long, backtest.RiskParams{ProfitTargetPct: decimal.FromFloat64(0.05), StopLossPct: decimal.FromFloat64(0.05)}, 3, backtest.InSampleOutOfSample, wideWindow())
	last := len(base.Returns) - 1
	assert.True(t, base.Returns[last].IsZero())
	assert.Zero(t, base.BarsInPosition[last])
}

func TestBacktestZeroTradesYieldsZeroSentinel(t *testing.T) {
	m := allFactsMatrix(6)
	base := backtest.BaseReturns{Returns: make([]decimal.Decimal, 6), BarsInPosition: make([]uint16, 6)}
	stats := backtest.Backtest(m, []bars.FactID{0}, base, backtest.PlainVanilla, 1)
	assert.True(t, stats.PF.Equal(backtest.ProfitFactorSentinelZero))
	assert.Zero(t, stats.Trades)
}

func TestBacktestNoLosersYieldsMaxSentinel(t *testing.T) {
	// allFactsMatrix builds a strictly-decreasing close series, so its
	// first interned fact ("yesterday's close > today's close") is true
	// on every date but the first (a lone bar has no history to compare).
	m := allFactsMatrix(5)
	returns := []decimal.Decimal{decimal.Zero, decimal.FromFloat64(0.02), decimal.FromFloat64(0.01), decimal.FromFloat64(0.03), decimal.FromFloat64(0.02)}
	base := backtest.BaseReturns{Returns: returns, BarsInPosition: []uint16{0, 1, 1, 1, 1}}
	stats := backtest.Backtest(m, []bars.FactID{0}, base, backtest.PlainVanilla, 1)
	assert.True(t, stats.PF.Equal(backtest.ProfitFactorSentinelMax))
	assert.EqualValues(t, 4, stats.Trades)
}

func TestBacktestPanicsOnLengthMismatch(t *testing.T) {
	m := allFactsMatrix(4)
	base := backtest.BaseReturns{Returns: make([]decimal.Decimal, 3), BarsInPosition: make([]uint16, 3)}
	require.Panics(t, func() {
		backtest.Backtest(m, []bars.FactID{0}, base, backtest.PlainVanilla, 1)
	})
}

func TestBacktestPlainVanillaSkipsWhileInPosition(t *testing.T) {
	m := allFactsMatrix(5)
	returns := []decimal.Decimal{
		decimal.Zero, decimal.FromFloat64(0.10), decimal.FromFloat64(-0.50), decimal.FromFloat64(-0.50), decimal.Zero,
	}
	base := backtest.BaseReturns{Returns: returns, BarsInPosition: []uint16{0, 3, 1, 1, 0}}
	stats := backtest.Backtest(m, []bars.FactID{0}, base, backtest.PlainVanilla, 1)
	// The date-2 and date-3 signals fall inside the date-1 trade's holding
	// period and must be skipped under PlainVanilla.
	assert.EqualValues(t, 1, stats.Trades)
	assert.True(t, stats.PF.Equal(backtest.ProfitFactorSentinelMax))
}
