package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataPageAddAndReadRow(t *testing.T) {
	p := NewDataPage(512, 7)

	slot, err := p.AddRow([]byte("hello row"))
	require.NoError(t, err)
	assert.Equal(t, 0, slot)
	assert.Equal(t, 1, p.RowCount())

	body, overflow, err := p.RowBytes(slot)
	require.NoError(t, err)
	assert.Nil(t, overflow)
	assert.Equal(t, "hello row", string(body))
}

func TestDataPageFreeSpaceShrinks(t *testing.T) {
	p := NewDataPage(512, 1)
	before := p.FreeSpace()
	_, err := p.AddRow([]byte("abcdefgh"))
	require.NoError(t, err)
	assert.Less(t, p.FreeSpace(), before)
}

func TestDataPageOverflowRoundTrip(t *testing.T) {
	p := NewDataPage(512, 1)
	slot, err := p.AddRow([]byte{0, 0, 0, 0})
	require.NoError(t, err)

	require.NoError(t, p.MarkOverflow(slot, 42, 3))
	_, ptr, err := p.RowBytes(slot)
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, uint32(42), ptr.PageNumber)
	assert.Equal(t, byte(3), ptr.RowNumber)
}

func TestDataPageMarkShadowHidesRowWithoutTouchingBody(t *testing.T) {
	p := NewDataPage(512, 1)
	slot, err := p.AddRow([]byte("relocated row"))
	require.NoError(t, err)

	require.NoError(t, p.MarkShadow(slot))

	info, err := p.Slot(slot)
	require.NoError(t, err)
	assert.True(t, info.Shadow)
	assert.False(t, info.Deleted)
	assert.False(t, info.Overflow)

	body, overflow, err := p.RowBytes(slot)
	require.NoError(t, err)
	assert.Nil(t, overflow)
	assert.Equal(t, "relocated row", string(body))
}

func TestDataPageFullRejectsOversizedRow(t *testing.T) {
	p := NewDataPage(32, 1)
	_, err := p.AddRow(make([]byte, 64))
	assert.ErrorIs(t, err, ErrPageFull)
}

func TestIndexPageEntryRoundTrip(t *testing.T) {
	p := NewIndexPage(256, true)

	e1 := Entry{Key: []byte("ABcat"), RowPage: 1, RowNumber: 0}
	e2 := Entry{Key: []byte("ABdog"), RowPage: 1, RowNumber: 1}
	require.NoError(t, p.SetEntries([]Entry{e1, e2}))

	assert.Equal(t, "AB", string(p.SharedPrefix))

	entries, err := p.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ABcat", string(entries[0].Key))
	assert.Equal(t, "ABdog", string(entries[1].Key))
	assert.Equal(t, byte(1), entries[1].RowNumber)
}

func TestIndexPageRoundTripsThroughParse(t *testing.T) {
	p := NewIndexPage(256, true)
	require.NoError(t, p.SetEntries([]Entry{
		{Key: []byte("ABcat"), RowPage: 1, RowNumber: 0},
		{Key: []byte("ABdog"), RowPage: 1, RowNumber: 1},
	}))
	p.SetLinks(5, 6, 0)

	reparsed, err := ParseIndexPage(p.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(5), reparsed.Prev)
	assert.Equal(t, uint32(6), reparsed.Next)
	entries, err := reparsed.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ABdog", string(entries[1].Key))
}

func TestMaxEntryBytes(t *testing.T) {
	assert.Equal(t, 80, MaxEntryBytes(4096, 4000, 10))
	assert.Equal(t, 96, MaxEntryBytes(4096, 3000, 12))
}
