package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareByKeyBytes(t *testing.T) {
	a := Entry{Key: []byte{1, 2}, Type: Normal}
	b := Entry{Key: []byte{1, 3}, Type: Normal}
	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, 0, Compare(a, a))
}

func TestCompareShorterKeyIsPrefixLess(t *testing.T) {
	a := Entry{Key: []byte{1}, Type: Normal}
	b := Entry{Key: []byte{1, 0}, Type: Normal}
	assert.Equal(t, -1, Compare(a, b))
}

func TestCompareEntryTypeBreaksTie(t *testing.T) {
	a := Entry{Key: []byte{1}, Type: FirstValid}
	b := Entry{Key: []byte{1}, Type: Normal}
	assert.Equal(t, -1, Compare(a, b))
}

func TestSentinelsAlwaysBoundReal(t *testing.T) {
	real := Entry{Key: []byte{0}, Type: Normal}
	assert.Equal(t, -1, Compare(FirstEntry, real))
	assert.Equal(t, 1, Compare(LastEntry, real))
}
