package decimal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chidi150c/palsearch/internal/decimal"
)

func TestFromFloat64Rounds(t *testing.T) {
	d := decimal.FromFloat64(1.0 / 3.0)
	assert.True(t, d.Equal(decimal.Round(d)))
}

func TestSafeDivZeroDenominatorReturnsSentinel(t *testing.T) {
	got := decimal.SafeDiv(decimal.One, decimal.Zero, decimal.Hundred)
	assert.True(t, got.Equal(decimal.Hundred))
}

func TestSafeDivOrdinaryCase(t *testing.T) {
	got := decimal.SafeDiv(decimal.FromInt(10), decimal.FromInt(4), decimal.Zero)
	assert.True(t, got.Equal(decimal.FromFloat64(2.5)))
}

func TestAbs(t *testing.T) {
	assert.True(t, decimal.Abs(decimal.FromInt(-5)).Equal(decimal.FromInt(5)))
}

func TestFromStringRejectsGarbage(t *testing.T) {
	_, err := decimal.FromString("not-a-number")
	assert.Error(t, err)
}
