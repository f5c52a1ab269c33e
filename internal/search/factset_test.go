package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chidi150c/palsearch/internal/bars"
	"github.com/chidi150c/palsearch/internal/search"
)

func TestNewFactSetSortsAndDedupes(t *testing.T) {
	fs := search.NewFactSet(3, 1, 1, 2)
	assert.Equal(t, search.FactSet{1, 2, 3}, fs)
}

func TestFactSetEqualIgnoresConstructionOrder(t *testing.T) {
	a := search.NewFactSet(1, 2, 3)
	b := search.NewFactSet(3, 2, 1)
	assert.True(t, a.Equal(b))
}

func TestFactSetExtendIsNoopForExistingMember(t *testing.T) {
	fs := search.NewFactSet(1, 2)
	assert.True(t, fs.Extend(2).Equal(fs))
	assert.True(t, fs.Extend(5).Equal(search.NewFactSet(1, 2, 5)))
}

func TestFactSetKeyDistinguishesDifferentSets(t *testing.T) {
	a := search.NewFactSet(1, 2)
	b := search.NewFactSet(1, 3)
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), search.NewFactSet(2, 1).Key())
}

func TestFactSetContains(t *testing.T) {
	fs := search.NewFactSet(1, 2, 3)
	assert.True(t, fs.Contains(bars.FactID(2)))
	assert.False(t, fs.Contains(bars.FactID(9)))
}
