package schema

import (
	"testing"

	"github.com/jetdb/jetdb/column"
	"github.com/stretchr/testify/require"
)

func TestBuildFromDDLBasicTypes(t *testing.T) {
	tbl, err := BuildFromDDL(`CREATE TABLE People (
		ID INT NOT NULL AUTO_INCREMENT,
		Name VARCHAR(50) NOT NULL,
		Age SMALLINT,
		Balance DECIMAL(10,2)
	)`)
	require.NoError(t, err)
	require.Equal(t, "People", tbl.Name)
	require.Equal(t, 4, tbl.ColumnCount())

	id, err := tbl.Column("ID")
	require.NoError(t, err)
	require.True(t, id.IsAutonumber)
	require.Equal(t, column.TypeLong, id.Spec.Type)

	name, err := tbl.Column("Name")
	require.NoError(t, err)
	require.False(t, name.Nullable)
	require.Equal(t, column.TypeText, name.Spec.Type)

	age, err := tbl.Column("Age")
	require.NoError(t, err)
	require.True(t, age.Nullable)
	require.Equal(t, column.TypeInt, age.Spec.Type)

	balance, err := tbl.Column("Balance")
	require.NoError(t, err)
	require.Equal(t, column.TypeNumeric, balance.Spec.Type)
	require.Equal(t, 2, balance.Spec.Scale)
}

func TestBuildFromDDLRejectsNonCreateTable(t *testing.T) {
	_, err := BuildFromDDL(`SELECT 1`)
	require.Error(t, err)
}

func TestBuildFromDDLRejectsUnknownType(t *testing.T) {
	_, err := BuildFromDDL(`CREATE TABLE T (C GEOMETRY)`)
	require.Error(t, err)
}
