package schema

import (
	"testing"

	"github.com/jetdb/jetdb/column"
	"github.com/jetdb/jetdb/iface"
	"github.com/stretchr/testify/require"
)

func TestAddColumnAssignsOrdinalsAndVarOrder(t *testing.T) {
	tbl := NewTable("Widgets")
	require.NoError(t, tbl.AddColumn(NewColumn("ID", column.Spec{Type: column.TypeLong}, false)))
	require.NoError(t, tbl.AddColumn(NewColumn("Name", column.Spec{Type: column.TypeText, TextCompressed: true}, true)))
	require.NoError(t, tbl.AddColumn(NewColumn("Price", column.Spec{Type: column.TypeMoney}, true)))

	require.Equal(t, 3, tbl.ColumnCount())
	name, err := tbl.Column("Name")
	require.NoError(t, err)
	require.Equal(t, 1, name.Index)
	require.Equal(t, 0, name.varOrder)

	require.Equal(t, uint64(3), tbl.ModCount)
}

func TestAddColumnRejectsDuplicateName(t *testing.T) {
	tbl := NewTable("Widgets")
	require.NoError(t, tbl.AddColumn(NewColumn("ID", column.Spec{Type: column.TypeLong}, false)))
	err := tbl.AddColumn(NewColumn("ID", column.Spec{Type: column.TypeLong}, false))
	require.ErrorIs(t, err, ErrColumnExists)
}

func TestColumnNotFound(t *testing.T) {
	tbl := NewTable("Widgets")
	_, err := tbl.Column("Missing")
	require.ErrorIs(t, err, ErrColumnNotFound)
}

func TestAutonumberAndCalculatedColumnSets(t *testing.T) {
	tbl := NewTable("Widgets")
	id := NewColumn("ID", column.Spec{Type: column.TypeLong}, false)
	id.IsAutonumber = true
	require.NoError(t, tbl.AddColumn(id))

	total := NewColumn("Total", column.Spec{Type: column.TypeLong}, true)
	total.IsCalculated = true
	total.CalcExpr = "[Qty] * [Price]"
	require.NoError(t, tbl.AddColumn(total))

	require.Len(t, tbl.AutonumberColumns(), 1)
	require.Equal(t, "ID", tbl.AutonumberColumns()[0].Name)
	require.Len(t, tbl.CalculatedColumns(), 1)
	require.Equal(t, "Total", tbl.CalculatedColumns()[0].Name)
}

func TestVariableLengthColumnsOrderedBySlot(t *testing.T) {
	tbl := NewTable("Widgets")
	require.NoError(t, tbl.AddColumn(NewColumn("ID", column.Spec{Type: column.TypeLong}, false)))
	require.NoError(t, tbl.AddColumn(NewColumn("Name", column.Spec{Type: column.TypeText, TextCompressed: true}, true)))
	require.NoError(t, tbl.AddColumn(NewColumn("Notes", column.Spec{Type: column.TypeMemo, TextCompressed: true}, true)))

	vars := tbl.VariableLengthColumns()
	require.Len(t, vars, 2)
	require.Equal(t, "Name", vars[0].Name)
	require.Equal(t, "Notes", vars[1].Name)
}

func TestValidatorChain(t *testing.T) {
	var ctx iface.EvalContext

	required := Required(Identity)
	require.Error(t, required.Validate(nil, ctx))
	require.NoError(t, required.Validate("x", ctx))

	noZero := NoZeroLen(Identity)
	require.Error(t, noZero.Validate("", ctx))
	require.NoError(t, noZero.Validate("x", ctx))

	calls := 0
	external := External(func(v any, c iface.EvalContext) error { calls++; return nil }, Identity)
	require.NoError(t, external.Validate("x", ctx))
	require.Equal(t, 1, calls)
}
