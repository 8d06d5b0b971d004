package row

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLayout(format OffsetFormat) *Layout {
	return &Layout{
		Columns: []ColumnDesc{
			{Name: "id", FixedDataOffset: 0, FixedSize: 4},
			{Name: "active", NullMaskOnly: true},
			{Name: "name", Variable: true, VarOrder: 0},
			{Name: "notes", Variable: true, VarOrder: 1},
		},
		MaxColumnCount:    4,
		MaxVarColumnCount: 2,
		MaxRowSize:        4096,
		MinRowSize:        0,
		Format:            format,
	}
}

func buildSampleValues() []Value {
	return []Value{
		{Bytes: []byte{1, 0, 0, 0}},
		{IsTrue: true},
		{Bytes: []byte("hello")},
		{IsNull: true},
	}
}

func TestRowRoundTripShortOffset(t *testing.T) {
	layout := testLayout(ShortOffset)
	values := buildSampleValues()

	buf, err := BuildRow(layout, values)
	require.NoError(t, err)

	id, err := ReadValue(buf, layout, "id")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0}, id.Bytes)

	active, err := ReadValue(buf, layout, "active")
	require.NoError(t, err)
	assert.True(t, active.IsTrue)
	assert.False(t, active.IsNull)

	name, err := ReadValue(buf, layout, "name")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(name.Bytes))

	notes, err := ReadValue(buf, layout, "notes")
	require.NoError(t, err)
	assert.True(t, notes.IsNull)
}

func TestRowRoundTripJumpTable(t *testing.T) {
	layout := testLayout(JumpTable)
	values := buildSampleValues()

	buf, err := BuildRow(layout, values)
	require.NoError(t, err)

	name, err := ReadValue(buf, layout, "name")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(name.Bytes))

	row, err := ReadRow(buf, layout)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0}, row["id"].Bytes)
	assert.True(t, row["active"].IsTrue)
	assert.True(t, row["notes"].IsNull)
}

func TestRowJumpTableWrapsPast255(t *testing.T) {
	layout := &Layout{
		Columns: []ColumnDesc{
			{Name: "pad", Variable: true, VarOrder: 0},
			{Name: "tail", Variable: true, VarOrder: 1},
		},
		MaxColumnCount:    2,
		MaxVarColumnCount: 2,
		MaxRowSize:        4096,
		Format:            JumpTable,
	}
	big := make([]byte, 300)
	for i := range big {
		big[i] = byte(i)
	}
	values := []Value{
		{Bytes: big},
		{Bytes: []byte("tailvalue")},
	}

	buf, err := BuildRow(layout, values)
	require.NoError(t, err)

	pad, err := ReadValue(buf, layout, "pad")
	require.NoError(t, err)
	assert.Equal(t, big, pad.Bytes)

	tail, err := ReadValue(buf, layout, "tail")
	require.NoError(t, err)
	assert.Equal(t, "tailvalue", string(tail.Bytes))
}

func TestRowTooLarge(t *testing.T) {
	layout := testLayout(ShortOffset)
	layout.MaxRowSize = 10
	values := buildSampleValues()

	_, err := BuildRow(layout, values)
	assert.ErrorIs(t, err, ErrRowTooLarge)
}
