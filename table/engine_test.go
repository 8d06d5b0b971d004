package table

import (
	"testing"

	"github.com/jetdb/jetdb/column"
	"github.com/jetdb/jetdb/iface"
	"github.com/jetdb/jetdb/index"
	"github.com/jetdb/jetdb/schema"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *schema.Table) {
	t.Helper()
	tbl := schema.NewTable("People")
	require.NoError(t, tbl.AddColumn(schema.NewColumn("ID", column.Spec{Type: column.TypeLong}, false)))
	idCol, _ := tbl.Column("ID")
	idCol.IsAutonumber = true
	idCol.Validator = schema.Identity

	nameCol := schema.NewColumn("Name", column.Spec{Type: column.TypeText, TextCompressed: true}, true)
	require.NoError(t, tbl.AddColumn(nameCol))

	ageCol := schema.NewColumn("Age", column.Spec{Type: column.TypeLong}, true)
	require.NoError(t, tbl.AddColumn(ageCol))

	channel := iface.NewMemPageChannel(512)
	pages := iface.NewMemUsageMap()
	e := NewEngine(tbl, LegacyFormat, channel, iface.IdentityEvaluator{}, pages, 0)
	e.Format.PageSize = 512

	e.SetAutonumberGenerator("ID", NewLongGenerator(false))

	tree, err := index.NewTree(channel, true)
	require.NoError(t, err)
	e.Indexes = append(e.Indexes, &IndexSpec{
		Name:      "PrimaryKey",
		Tree:      tree,
		Columns:   []*schema.Column{idCol},
		Ascending: []bool{true},
		Unique:    true,
	})
	return e, tbl
}

func TestAddRowsAssignsAutonumberAndIndexes(t *testing.T) {
	e, _ := newTestEngine(t)

	ids, err := e.AddRows([]map[string]any{
		{"Name": "Ada", "Age": int32(30)},
		{"Name": "Grace", "Age": int32(40)},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	row0, err := e.ReadRow(ids[0])
	require.NoError(t, err)
	require.EqualValues(t, 1, row0["ID"])
	require.Equal(t, "Ada", row0["Name"])
	require.EqualValues(t, 30, row0["Age"])

	rowID, found, err := e.Indexes[0].Tree.Find(mustKey(t, e.Indexes[0], map[string]any{"ID": int64(2)}))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, ids[1], rowID)
}

func TestAddRowsRejectsDuplicatePrimaryKey(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.AddRows([]map[string]any{{"Name": "Ada", "Age": int32(30)}})
	require.NoError(t, err)

	_, err = e.AddRows([]map[string]any{{"ID": int64(1), "Name": "Dup", "Age": int32(1)}})
	require.Error(t, err)
}

func TestUpdateRowSameSizeRewritesInPlace(t *testing.T) {
	e, _ := newTestEngine(t)
	ids, err := e.AddRows([]map[string]any{{"Name": "Ada", "Age": int32(30)}})
	require.NoError(t, err)

	err = e.UpdateRow(ids[0], map[string]any{"Age": int32(31)})
	require.NoError(t, err)

	got, err := e.ReadRow(ids[0])
	require.NoError(t, err)
	require.EqualValues(t, 31, got["Age"])
	require.Equal(t, "Ada", got["Name"])
}

func TestUpdateRowGrowsViaOverflow(t *testing.T) {
	e, _ := newTestEngine(t)
	ids, err := e.AddRows([]map[string]any{{"Name": "Ada", "Age": int32(30)}})
	require.NoError(t, err)

	longName := "Augusta Ada King, Countess of Lovelace, mathematician"
	err = e.UpdateRow(ids[0], map[string]any{"Name": longName})
	require.NoError(t, err)

	got, err := e.ReadRow(ids[0])
	require.NoError(t, err)
	require.Equal(t, longName, got["Name"])
}

func TestForEachRowVisitsGrownRowExactlyOnce(t *testing.T) {
	e, _ := newTestEngine(t)
	ids, err := e.AddRows([]map[string]any{
		{"Name": "Ada", "Age": int32(30)},
		{"Name": "Grace", "Age": int32(40)},
	})
	require.NoError(t, err)

	longName := "Augusta Ada King, Countess of Lovelace, mathematician"
	require.NoError(t, e.UpdateRow(ids[0], map[string]any{"Name": longName}))

	seen := map[index.RowID]int{}
	require.NoError(t, e.ForEachRow(func(id index.RowID, values map[string]any) error {
		seen[id]++
		return nil
	}))

	require.Len(t, seen, 2)
	for id, count := range seen {
		require.Equal(t, 1, count, "row %+v visited more than once", id)
	}
}

func TestDeleteRowRemovesIndexEntry(t *testing.T) {
	e, _ := newTestEngine(t)
	ids, err := e.AddRows([]map[string]any{{"Name": "Ada", "Age": int32(30)}})
	require.NoError(t, err)

	require.NoError(t, e.DeleteRow(ids[0]))

	_, found, err := e.Indexes[0].Tree.Find(mustKey(t, e.Indexes[0], map[string]any{"ID": int64(1)}))
	require.NoError(t, err)
	require.False(t, found)
}

func mustKey(t *testing.T, ix *IndexSpec, values map[string]any) []byte {
	t.Helper()
	key, err := ix.encodeKey(values)
	require.NoError(t, err)
	return key
}
