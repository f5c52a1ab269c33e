package bars_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/decimal"
)

func bar(t time.Time, o, h, l, c float64) bars.Bar {
	return bars.Bar{
		Time:  t,
		Open:  decimal.FromFloat64(o),
		High:  decimal.FromFloat64(h),
		Low:   decimal.FromFloat64(l),
		Close: decimal.FromFloat64(c),
	}
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestPushBarRejectsOutOfOrderTimestamps(t *testing.T) {
	g := bars.NewGenerator(5, bars.CloseOnly)
	require.NoError(t, g.PushBar(bar(day(1), 1, 1, 1, 1)))
	err := g.PushBar(bar(day(0), 1, 1, 1, 1))
	assert.ErrorIs(t, err, bars.ErrOutOfOrder)
}

func TestPushBarRejectsDuplicateTimestamp(t *testing.T) {
	g := bars.NewGenerator(5, bars.CloseOnly)
	require.NoError(t, g.PushBar(bar(day(1), 1, 1, 1, 1)))
	err := g.PushBar(bar(day(1), 2, 2, 2, 2))
	assert.ErrorIs(t, err, bars.ErrOutOfOrder)
}

// A single bar can never produce a fact: every address pair needs a
// second, older bar in the buffer to compare against.
func TestSingleBarProducesNoFacts(t *testing.T) {
	g := bars.NewGenerator(5, bars.CloseOnly)
	require.NoError(t, g.PushBar(bar(day(0), 1, 1, 1, 1)))
	assert.Empty(t, g.Facts())
	assert.Empty(t, g.PerDateFacts(0))
}

// Constant closes across the whole window mean every comparison ties, so
// CloseOnly over a flat series discovers zero facts.
func TestConstantPricesProduceNoFacts(t *testing.T) {
	g := bars.NewGenerator(5, bars.CloseOnly)
	for i := 0; i < 5; i++ {
		require.NoError(t, g.PushBar(bar(day(i), 10, 10, 10, 10)))
	}
	assert.Empty(t, g.Facts())
}

// HighLow search type excludes same-offset High/Low self-pairs (High is
// never usefully compared against its own bar's Low), but still compares
// High[0] against Low[1] etc.
func TestHighLowSelfPairExcluded(t *testing.T) {
	g := bars.NewGenerator(2, bars.HighLow)
	require.NoError(t, g.PushBar(bar(day(0), 5, 20, 1, 5)))
	require.NoError(t, g.PushBar(bar(day(1), 5, 20, 1, 5)))
	for _, f := range g.Facts() {
		if f.LHS.Offset == f.RHS.Offset {
			sameBarHL := (f.LHS.Field == bars.High && f.RHS.Field == bars.Low) ||
				(f.LHS.Field == bars.Low && f.RHS.Field == bars.High)
			assert.False(t, sameBarHL, "same-offset High/Low pair should never be recorded: %s", f)
		}
	}
}

// Ohlc search type distinguishes the real exclusion rule from the narrower
// "High vs Low only" one: any same-offset pair touching High or Low is
// excluded, including HIGH[0] vs OPEN[0]/CLOSE[0] and LOW[0] vs
// OPEN[0]/CLOSE[0], not just HIGH[0] vs LOW[0].
func TestOhlcSameOffsetExtremaPairsExcluded(t *testing.T) {
	g := bars.NewGenerator(2, bars.Ohlc)
	require.NoError(t, g.PushBar(bar(day(0), 5, 20, 1, 8)))
	require.NoError(t, g.PushBar(bar(day(1), 6, 18, 2, 9)))
	for _, f := range g.Facts() {
		if f.LHS.Offset != f.RHS.Offset {
			continue
		}
		touchesExtremum := f.LHS.Field == bars.High || f.LHS.Field == bars.Low ||
			f.RHS.Field == bars.High || f.RHS.Field == bars.Low
		assert.False(t, touchesExtremum, "same-offset pair touching High/Low should never be recorded: %s", f)
	}
	// Same-offset Open-vs-Close comparisons are not excluded.
	found := false
	for _, f := range g.Facts() {
		if f.LHS.Offset == f.RHS.Offset &&
			((f.LHS.Field == bars.Open && f.RHS.Field == bars.Close) || (f.LHS.Field == bars.Close && f.RHS.Field == bars.Open)) {
			found = true
		}
	}
	assert.True(t, found, "same-offset Open vs Close comparison should still be recorded")
}

// Facts are recorded canonically: the generator only ever stores the
// direction that actually held, so "B > A" never appears alongside "A > B"
// for the same bar pair.
func TestFactsAreCanonical(t *testing.T) {
	g := bars.NewGenerator(3, bars.CloseOnly)
	require.NoError(t, g.PushBar(bar(day(0), 1, 1, 1, 10)))
	require.NoError(t, g.PushBar(bar(day(1), 1, 1, 1, 5)))
	require.NoError(t, g.PushBar(bar(day(2), 1, 1, 1, 1)))

	seen := map[bars.Fact]bool{}
	for _, f := range g.Facts() {
		inverse := bars.Fact{LHS: f.RHS, RHS: f.LHS}
		assert.False(t, seen[inverse], "both directions of %s were recorded", f)
		seen[f] = true
	}
}

func TestFactIDsAreDenseAndStable(t *testing.T) {
	g := bars.NewGenerator(3, bars.CloseOnly)
	for i := 0; i < 4; i++ {
		require.NoError(t, g.PushBar(bar(day(i), 1, 1, 1, float64(10-i))))
	}
	n := len(g.Facts())
	seen := map[bars.FactID]bool{}
	for d := 0; d < g.NumDates(); d++ {
		for _, id := range g.PerDateFacts(d) {
			assert.Less(t, int(id), n)
			seen[id] = true
		}
	}
	for id := range seen {
		f := g.Facts()[id]
		gotID, ok := g.Lookup(f)
		require.True(t, ok)
		assert.Equal(t, id, gotID)
	}
}

func TestLookupMissingFactReportsNotFound(t *testing.T) {
	g := bars.NewGenerator(3, bars.CloseOnly)
	require.NoError(t, g.PushBar(bar(day(0), 1, 1, 1, 1)))
	_, ok := g.Lookup(bars.Fact{LHS: bars.BarRef{Offset: 9, Field: bars.Close}, RHS: bars.BarRef{Offset: 8, Field: bars.Close}})
	assert.False(t, ok)
}

func TestMatrixRowLengthMatchesNumDates(t *testing.T) {
	g := bars.NewGenerator(3, bars.CloseOnly)
	for i := 0; i < 6; i++ {
		require.NoError(t, g.PushBar(bar(day(i), 1, 1, 1, float64(i))))
	}
	m := bars.BuildMatrix(g)
	assert.Equal(t, g.NumDates(), m.N())
	assert.Equal(t, len(g.Facts()), m.NumFacts())
	for id := bars.FactID(0); int(id) < m.NumFacts(); id++ {
		assert.Equal(t, uint(m.N()), m.Row(id).Len())
	}
}

func TestFootprintIsIntersectionOfRows(t *testing.T) {
	g := bars.NewGenerator(3, bars.CloseOnly)
	for i := 0; i < 6; i++ {
		require.NoError(t, g.PushBar(bar(day(i), 1, 1, 1, float64(i))))
	}
	m := bars.BuildMatrix(g)
	require.GreaterOrEqual(t, m.NumFacts(), 2)

	single := m.Footprint([]bars.FactID{0})
	assert.True(t, single.Equal(m.Row(0)))

	both := m.Footprint([]bars.FactID{0, 1})
	want := m.Row(0).Clone().Intersection(m.Row(1))
	assert.True(t, both.Equal(want))
}
