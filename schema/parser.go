// parser.go - CREATE TABLE convenience builder, adapted from the teacher's
// schema/parser.go (MySQL DDL -> TableDef via sqlparser). jetdb keeps the
// same sqlparser.DDL walk but maps SQL types onto column.DataType instead of
// MySQL's ColumnType, strictly as schema-authoring sugar (spec SPEC_FULL.md
// DOMAIN STACK: "explicitly NOT used for anything touching the file format
// itself").
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jetdb/jetdb/column"
	"github.com/xwb1989/sqlparser"
)

// BuildFromDDL parses a single CREATE TABLE statement and returns the
// resulting Table, with columns built from the statement's column list
// (every NOT NULL column is marked nullable=false). It is a schema-authoring
// shortcut, not a query engine: only column name, type,
// length/precision/scale, nullability, AUTO_INCREMENT and DEFAULT are
// consulted.
func BuildFromDDL(sql string) (*Table, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("schema: parse DDL: %w", err)
	}
	ddl, ok := stmt.(*sqlparser.DDL)
	if !ok || ddl.Action != sqlparser.CreateStr {
		return nil, fmt.Errorf("schema: statement is not CREATE TABLE")
	}
	if ddl.TableSpec == nil {
		return nil, fmt.Errorf("schema: no table spec in CREATE TABLE")
	}

	table := NewTable(ddl.Table.Name.String())
	for _, col := range ddl.TableSpec.Columns {
		c, err := columnFromDDL(col)
		if err != nil {
			return nil, fmt.Errorf("schema: column %s: %w", col.Name.String(), err)
		}
		if err := table.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func columnFromDDL(col *sqlparser.ColumnDefinition) (*Column, error) {
	name := col.Name.String()
	typeName := strings.ToUpper(col.Type.Type)
	nullable := !bool(col.Type.NotNull)

	length := 0
	if col.Type.Length != nil {
		if n, err := strconv.Atoi(string(col.Type.Length.Val)); err == nil {
			length = n
		}
	}
	scale := 0
	if col.Type.Scale != nil {
		if n, err := strconv.Atoi(string(col.Type.Scale.Val)); err == nil {
			scale = n
		}
	}

	spec, err := specFromSQLType(typeName, length, scale)
	if err != nil {
		return nil, err
	}

	c := NewColumn(name, spec, nullable)
	if !nullable {
		c.Validator = Required(Identity)
	}
	if col.Type.Autoincrement {
		c.IsAutonumber = true
		c.Validator = Identity
	}
	if col.Type.Default != nil {
		c.DefaultExpr = sqlparser.String(col.Type.Default)
	}
	return c, nil
}

// specFromSQLType maps a SQL column type keyword to a column.Spec. This is
// deliberately approximate: it exists to let tests and the -sql CLI flag
// author a schema quickly, not to model every SQL dialect's type system.
func specFromSQLType(typeName string, length, scale int) (column.Spec, error) {
	switch typeName {
	case "TINYINT":
		if length == 1 {
			return column.Spec{Type: column.TypeBoolean}, nil
		}
		return column.Spec{Type: column.TypeByte}, nil
	case "BOOL", "BOOLEAN":
		return column.Spec{Type: column.TypeBoolean}, nil
	case "SMALLINT":
		return column.Spec{Type: column.TypeInt}, nil
	case "INT", "INTEGER", "MEDIUMINT":
		return column.Spec{Type: column.TypeLong}, nil
	case "BIGINT":
		return column.Spec{Type: column.TypeBigInt}, nil
	case "FLOAT", "REAL":
		return column.Spec{Type: column.TypeFloat}, nil
	case "DOUBLE", "DOUBLE PRECISION":
		return column.Spec{Type: column.TypeDouble}, nil
	case "DECIMAL", "NUMERIC", "DEC":
		precision := length
		if precision == 0 {
			precision = 18
		}
		return column.Spec{Type: column.TypeNumeric, Precision: precision, Scale: scale}, nil
	case "DATE", "DATETIME", "TIMESTAMP":
		return column.Spec{Type: column.TypeShortDateTime}, nil
	case "CHAR", "VARCHAR", "TEXT", "TINYTEXT":
		return column.Spec{Type: column.TypeText, TextCompressed: true}, nil
	case "MEDIUMTEXT", "LONGTEXT":
		return column.Spec{Type: column.TypeMemo, TextCompressed: true}, nil
	case "BINARY", "VARBINARY":
		return column.Spec{Type: column.TypeBinary, Length: length}, nil
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB":
		return column.Spec{Type: column.TypeMemo}, nil
	default:
		return column.Spec{}, fmt.Errorf("%w: %s", column.ErrUnsupportedType, typeName)
	}
}
