package table

import (
	"encoding/binary"
	"testing"

	"github.com/jetdb/jetdb/column"
	"github.com/jetdb/jetdb/schema"
	"github.com/stretchr/testify/require"
)

func TestWriteTdefRoundTripsHeaderCounts(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.WriteTdef())

	body, err := e.TdefBytes()
	require.NoError(t, err)
	require.Equal(t, uint16(e.Layout.MaxColumnCount), binary.LittleEndian.Uint16(body[0:2]))
	require.Equal(t, uint16(e.Layout.MaxVarColumnCount), binary.LittleEndian.Uint16(body[2:4]))
	require.Equal(t, uint16(3), binary.LittleEndian.Uint16(body[4:6])) // ID, Name, Age
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(body[6:8])) // PrimaryKey
	require.Equal(t, uint16(len(body)), binary.LittleEndian.Uint16(body[8:10]))
}

func TestAddColumnGrowsDefinitionAndLayout(t *testing.T) {
	e, tbl := newTestEngine(t)
	require.NoError(t, e.WriteTdef())

	before := e.Layout.MaxColumnCount
	err := e.AddColumn(schema.NewColumn("Notes", column.Spec{Type: column.TypeMemo, TextCompressed: true}, true))
	require.NoError(t, err)

	require.Equal(t, before+1, e.Layout.MaxColumnCount)
	_, err = tbl.Column("Notes")
	require.NoError(t, err)

	body, err := e.TdefBytes()
	require.NoError(t, err)
	require.Equal(t, uint16(4), binary.LittleEndian.Uint16(body[4:6]))
}

func TestWriteTdefGrowsAcrossPagesWhenFormatBudgetIsTight(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Format.PageSize = 64 // forces the body to span multiple tdef pages
	require.NoError(t, e.WriteTdef())

	buf := e.Channel.CreatePageBuffer()
	require.NoError(t, e.Channel.ReadPage(buf, int(e.TdefPage)))
	require.Equal(t, byte(4), buf[0]) // page.TypeTableDef
	next := binary.LittleEndian.Uint32(buf[4:8])
	require.NotZero(t, next, "body should not fit in a single 64-byte tdef page")

	nextBuf := e.Channel.CreatePageBuffer()
	require.NoError(t, e.Channel.ReadPage(nextBuf, int(next)))
	require.Equal(t, byte(4), nextBuf[0])
}

func TestAddColumnRollsBackOnWriteFailure(t *testing.T) {
	e, tbl := newTestEngine(t)
	e.Format.MaxTdefPages = 0 // no tdef page budget at all: every write fails

	before := tbl.ColumnCount()
	err := e.AddColumn(schema.NewColumn("Notes", column.Spec{Type: column.TypeText, TextCompressed: true}, true))
	require.Error(t, err)
	require.Equal(t, before, tbl.ColumnCount())
	_, err = tbl.Column("Notes")
	require.Error(t, err)
}
