package index

import (
	"bytes"
	"math/big"
	"sort"
	"testing"

	"github.com/jetdb/jetdb/column"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNumeric(v int64) column.Numeric {
	neg := v < 0
	if neg {
		v = -v
	}
	return column.Numeric{Negative: neg, Unscaled: big.NewInt(v), Scale: 0}
}

func TestEncodeIntOrdersNumerically(t *testing.T) {
	values := []int64{-100, -1, 0, 1, 100, 1000}
	var keys [][]byte
	for _, v := range values {
		keys = append(keys, EncodeInt(v, 4, true))
	}
	sorted := make([][]byte, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })
	assert.Equal(t, keys, sorted, "ascending int keys should already be in sorted order")
}

func TestEncodeIntDescendingReversesOrder(t *testing.T) {
	lo := EncodeInt(1, 4, false)
	hi := EncodeInt(2, 4, false)
	assert.Equal(t, 1, bytes.Compare(lo, hi), "descending key for the smaller value should sort after the larger value's key")
}

func TestEncodeNullSortsBeforeValues(t *testing.T) {
	n := EncodeNull(true)
	v := EncodeInt(-1000000, 4, true)
	assert.Equal(t, -1, bytes.Compare(n, v), "ascending null should sort before any real value")

	nDesc := EncodeNull(false)
	vDesc := EncodeInt(1000000, 4, false)
	assert.Equal(t, 1, bytes.Compare(nDesc, vDesc), "descending null should sort after any real value")
}

func TestEncodeFloatOrdersNumerically(t *testing.T) {
	values := []float64{-3.5, -0.001, 0, 0.001, 3.5}
	var keys [][]byte
	for _, v := range values {
		keys = append(keys, EncodeFloat(v, false, true))
	}
	for i := 1; i < len(keys); i++ {
		assert.Equal(t, -1, bytes.Compare(keys[i-1], keys[i]))
	}
}

func TestEncodeBooleanFourVariants(t *testing.T) {
	assert.Equal(t, byte(0x00), BooleanKey(false, true))
	assert.Equal(t, byte(0x01), BooleanKey(true, true))
	assert.Equal(t, byte(0xFF), BooleanKey(false, false))
	assert.Equal(t, byte(0xFE), BooleanKey(true, false))
}

func TestEncodeBinaryShortSegment(t *testing.T) {
	data := []byte{1, 2, 3}
	key := EncodeBinary(data, true)
	// header + 8-byte segment + 1 length byte
	require.Len(t, key, 1+8+1)
	assert.Equal(t, byte(3), key[len(key)-1])
}

func TestEncodeBinaryMultiSegment(t *testing.T) {
	data := make([]byte, 10)
	for i := range data {
		data[i] = byte(i)
	}
	key := EncodeBinary(data, true)
	// header + full 8-byte segment + continuation marker(9) + 2-byte segment + length(2)
	require.Len(t, key, 1+9+9)
	assert.Equal(t, byte(9), key[9])
	assert.Equal(t, byte(2), key[len(key)-1])
}

func TestEncodeBinaryDescendingFlipsDataNotMarker(t *testing.T) {
	data := make([]byte, 10)
	key := EncodeBinary(data, false)
	assert.Equal(t, byte(9), key[9], "continuation marker stays unflipped even descending")
}

func TestEncodeTextCaseInsensitiveOrdering(t *testing.T) {
	lower := EncodeText("apple", true, CollationGeneral)
	upper := EncodeText("APPLE", true, CollationGeneral)
	assert.Equal(t, lower[:len(lower)-len("apple")], upper[:len(upper)-len("APPLE")])
}

func TestEncodeTextOrdersLexicographically(t *testing.T) {
	a := EncodeText("apple", true, CollationGeneral)
	b := EncodeText("banana", true, CollationGeneral)
	assert.Equal(t, -1, bytes.Compare(a, b))
}

func TestEncodeNumericLegacyVsCurrent(t *testing.T) {
	legacyDesc := EncodeNumeric(testNumeric(-5), false, NumericLegacy)
	currentDesc := EncodeNumeric(testNumeric(-5), false, NumericCurrent)
	assert.NotEqual(t, legacyDesc, currentDesc)
}

func TestEncodeNumericCurrentOrdersNegativesBeforeZeroAndPositive(t *testing.T) {
	keys := [][]byte{
		EncodeNumeric(testNumeric(-123), true, NumericCurrent), // -1.23
		EncodeNumeric(testNumeric(-122), true, NumericCurrent), // -1.22
		EncodeNumeric(testNumeric(0), true, NumericCurrent),    // 0
		EncodeNumeric(testNumeric(100), true, NumericCurrent),  // 1.00
	}
	for i := 1; i < len(keys); i++ {
		assert.Equal(t, -1, bytes.Compare(keys[i-1], keys[i]),
			"value %d should sort before value %d", i-1, i)
	}
}

func TestEncodeExtendedDateTimeTrailer(t *testing.T) {
	var raw [42]byte
	asc := EncodeExtendedDateTime(raw, true)
	desc := EncodeExtendedDateTime(raw, false)
	assert.Equal(t, extendedDateTimeTrailerAsc, asc[len(asc)-7:])
	assert.Equal(t, extendedDateTimeTrailerDesc, desc[len(desc)-7:])
}
