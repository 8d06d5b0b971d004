package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareAndCommitAddRow(t *testing.T) {
	tree := newTestTree(t, 512, true)
	entry := Entry{Key: EncodeInt(1, 4, true), Row: RowID{PageNumber: 9, RowNumber: 0}}
	change, err := PrepareAddRow(tree, entry)
	require.NoError(t, err)
	assert.False(t, change.IsDupeEntry)

	require.NoError(t, CommitAll(Chain(change)))
	row, found, err := tree.Find(entry.Key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entry.Row, row)
}

func TestPrepareAddRowFlagsDuplicateWithoutMutating(t *testing.T) {
	tree := newTestTree(t, 512, true)
	key := EncodeInt(1, 4, true)
	require.NoError(t, tree.Insert(key, RowID{PageNumber: 1, RowNumber: 0}))

	change, err := PrepareAddRow(tree, Entry{Key: key, Row: RowID{PageNumber: 2, RowNumber: 0}})
	require.NoError(t, err)
	assert.True(t, change.IsDupeEntry)

	require.NoError(t, CommitAll(Chain(change)))
	row, _, _ := tree.Find(key)
	assert.Equal(t, uint32(1), row.PageNumber, "original entry must survive a skipped dupe commit")
}

func TestRollbackAllUndoesCommittedInserts(t *testing.T) {
	tree := newTestTree(t, 512, false)
	entry := Entry{Key: EncodeInt(7, 4, true), Row: RowID{PageNumber: 3, RowNumber: 0}}
	change, err := PrepareAddRow(tree, entry)
	require.NoError(t, err)
	head := Chain(change)
	require.NoError(t, CommitAll(head))

	require.NoError(t, RollbackAll(head))
	_, found, err := tree.Find(entry.Key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPrepareUpdateRowReplacesEntry(t *testing.T) {
	tree := newTestTree(t, 512, true)
	oldEntry := Entry{Key: EncodeInt(1, 4, true), Row: RowID{PageNumber: 1, RowNumber: 0}}
	require.NoError(t, tree.Insert(oldEntry.Key, oldEntry.Row))

	newEntry := Entry{Key: EncodeInt(2, 4, true), Row: RowID{PageNumber: 1, RowNumber: 0}}
	change, err := PrepareUpdateRow(tree, oldEntry, newEntry)
	require.NoError(t, err)
	require.NoError(t, CommitAll(Chain(change)))

	_, found, err := tree.Find(oldEntry.Key)
	require.NoError(t, err)
	assert.False(t, found, "old key should be gone after update")

	row, found, err := tree.Find(newEntry.Key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, newEntry.Row, row)
}

func TestRollbackUpdateRestoresOldEntry(t *testing.T) {
	tree := newTestTree(t, 512, true)
	oldEntry := Entry{Key: EncodeInt(1, 4, true), Row: RowID{PageNumber: 1, RowNumber: 0}}
	require.NoError(t, tree.Insert(oldEntry.Key, oldEntry.Row))

	newEntry := Entry{Key: EncodeInt(2, 4, true), Row: RowID{PageNumber: 1, RowNumber: 0}}
	change, err := PrepareUpdateRow(tree, oldEntry, newEntry)
	require.NoError(t, err)
	head := Chain(change)
	require.NoError(t, CommitAll(head))
	require.NoError(t, RollbackAll(head))

	row, found, err := tree.Find(oldEntry.Key)
	require.NoError(t, err)
	require.True(t, found, "rollback should restore the deleted old entry")
	assert.Equal(t, oldEntry.Row, row)

	_, found, err = tree.Find(newEntry.Key)
	require.NoError(t, err)
	assert.False(t, found)
}
