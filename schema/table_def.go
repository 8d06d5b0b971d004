// table_def.go - Table definition, adapted from the teacher's
// schema/table_def.go (MySQL TableDef: ordered columns, a name->column map,
// cached nullable/var-length slices) generalized per spec §3 "Table": a
// monotonic modification counter, var-length columns kept in offset-table
// slot order (not declaration order), and the autonumber/indexed-column
// bookkeeping sets a MySQL table definition has no equivalent for.
package schema

import (
	"fmt"
)

// Table is a named collection of columns (spec §3 "Table").
type Table struct {
	Name    string
	Columns []*Column
	byName  map[string]*Column

	ModCount uint64

	LastLongAutonumber int64
	LastComplexAutonumber int64

	nextColumnNumber int
}

// NewTable creates an empty table definition.
func NewTable(name string) *Table {
	return &Table{Name: name, byName: make(map[string]*Column)}
}

// AddColumn appends col, assigning its Number/Index/varOrder.
func (t *Table) AddColumn(col *Column) error {
	if _, exists := t.byName[col.Name]; exists {
		return fmt.Errorf("%w: %s", ErrColumnExists, col.Name)
	}
	col.Number = t.nextColumnNumber
	t.nextColumnNumber++
	col.Index = len(t.Columns)
	if col.IsVariableLength() {
		col.varOrder = len(t.VariableLengthColumns())
	}
	t.Columns = append(t.Columns, col)
	t.byName[col.Name] = col
	t.ModCount++
	return nil
}

// RemoveLastColumn undoes the most recent AddColumn, returning the removed
// column (or nil if the table has none). The table engine uses this to roll
// an in-memory schema change back when persisting the grown table
// definition fails (spec §4.5 "Table-definition mutation").
func (t *Table) RemoveLastColumn() *Column {
	n := len(t.Columns)
	if n == 0 {
		return nil
	}
	col := t.Columns[n-1]
	t.Columns = t.Columns[:n-1]
	delete(t.byName, col.Name)
	t.nextColumnNumber--
	t.ModCount++
	return col
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, error) {
	c, ok := t.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return c, nil
}

// ColumnByOrdinal returns the column currently at display position idx.
func (t *Table) ColumnByOrdinal(idx int) (*Column, error) {
	if idx < 0 || idx >= len(t.Columns) {
		return nil, fmt.Errorf("%w: ordinal %d", ErrColumnNotFound, idx)
	}
	return t.Columns[idx], nil
}

// VariableLengthColumns returns columns stored in the row's variable-data
// region, in offset-table slot order (spec §3 "Table": "a set of
// variable-length columns ordered by their offset-table slot").
func (t *Table) VariableLengthColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.IsVariableLength() {
			out = append(out, c)
		}
	}
	return out
}

// AutonumberColumns returns every column flagged is_autonumber.
func (t *Table) AutonumberColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.IsAutonumber {
			out = append(out, c)
		}
	}
	return out
}

// CalculatedColumns returns every column flagged is_calculated, in
// declaration order (the table engine topologically sorts these itself; see
// table.SortCalculatedColumns).
func (t *Table) CalculatedColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.IsCalculated {
			out = append(out, c)
		}
	}
	return out
}

// ColumnCount returns the number of columns currently on the table.
func (t *Table) ColumnCount() int { return len(t.Columns) }
