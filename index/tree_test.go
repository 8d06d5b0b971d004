package index

import (
	"testing"

	"github.com/jetdb/jetdb/iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, pageSize int, unique bool) *Tree {
	t.Helper()
	channel := iface.NewMemPageChannel(pageSize)
	tree, err := NewTree(channel, unique)
	require.NoError(t, err)
	return tree
}

func TestTreeInsertAndFindSingle(t *testing.T) {
	tree := newTestTree(t, 512, false)
	key := EncodeInt(42, 4, true)
	require.NoError(t, tree.Insert(key, RowID{PageNumber: 7, RowNumber: 2}))

	row, found, err := tree.Find(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, RowID{PageNumber: 7, RowNumber: 2}, row)
}

func TestTreeFindMissingKey(t *testing.T) {
	tree := newTestTree(t, 512, false)
	require.NoError(t, tree.Insert(EncodeInt(1, 4, true), RowID{PageNumber: 1, RowNumber: 0}))

	_, found, err := tree.Find(EncodeInt(99, 4, true))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTreeUniqueRejectsDuplicateKey(t *testing.T) {
	tree := newTestTree(t, 512, true)
	key := EncodeInt(1, 4, true)
	require.NoError(t, tree.Insert(key, RowID{PageNumber: 1, RowNumber: 0}))

	err := tree.Insert(key, RowID{PageNumber: 1, RowNumber: 1})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestTreeNonUniqueAllowsDuplicateKey(t *testing.T) {
	tree := newTestTree(t, 512, false)
	key := EncodeInt(1, 4, true)
	require.NoError(t, tree.Insert(key, RowID{PageNumber: 1, RowNumber: 0}))
	require.NoError(t, tree.Insert(key, RowID{PageNumber: 1, RowNumber: 1}))
}

func TestTreeSplitsAcrossManyInserts(t *testing.T) {
	tree := newTestTree(t, 128, false)
	const n = 40
	for i := 0; i < n; i++ {
		key := EncodeInt(int64(i), 4, true)
		require.NoError(t, tree.Insert(key, RowID{PageNumber: uint32(i), RowNumber: 0}))
	}
	for i := 0; i < n; i++ {
		key := EncodeInt(int64(i), 4, true)
		row, found, err := tree.Find(key)
		require.NoErrorf(t, err, "find %d", i)
		require.Truef(t, found, "key %d should be found after splitting", i)
		assert.Equal(t, uint32(i), row.PageNumber)
	}
}

func TestTreeDeleteRemovesEntry(t *testing.T) {
	tree := newTestTree(t, 512, false)
	key := EncodeInt(5, 4, true)
	row := RowID{PageNumber: 3, RowNumber: 0}
	require.NoError(t, tree.Insert(key, row))
	require.NoError(t, tree.Delete(key, row))

	_, found, err := tree.Find(key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTreeDeleteMissingReturnsErrNotFound(t *testing.T) {
	tree := newTestTree(t, 512, false)
	err := tree.Delete(EncodeInt(1, 4, true), RowID{PageNumber: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCursorWalksInKeyOrder(t *testing.T) {
	tree := newTestTree(t, 128, false)
	const n = 25
	for i := n - 1; i >= 0; i-- { // insert out of order
		key := EncodeInt(int64(i), 4, true)
		require.NoError(t, tree.Insert(key, RowID{PageNumber: uint32(i), RowNumber: 0}))
	}

	cursor := NewCursor(tree)
	var seen []uint32
	for {
		e, ok, err := cursor.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		seen = append(seen, e.Row.PageNumber)
	}
	require.Len(t, seen, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, uint32(i), seen[i])
	}
}
