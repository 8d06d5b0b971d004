package table

import (
	"github.com/jetdb/jetdb/row"
	"github.com/jetdb/jetdb/schema"
)

// BuildLayout derives a row.Layout from a schema.Table's current columns
// and the owning Format, following spec §4.2 step 1: MaxColumnCount and
// MaxVarColumnCount track the table's column count (this engine does not
// yet support dropping columns while preserving dead slots, so both always
// match the live count exactly).
func BuildLayout(t *schema.Table, f Format) *row.Layout {
	layout := &row.Layout{
		MaxRowSize: f.MaxRowSize,
		MinRowSize: 0,
	}
	if f.UseJumpTable {
		layout.Format = row.JumpTable
	} else {
		layout.Format = row.ShortOffset
	}

	varCount := 0
	for _, c := range t.Columns {
		desc := row.ColumnDesc{
			Name:         c.Name,
			NullMaskOnly: c.IsNullMaskOnly(),
			Variable:     c.IsVariableLength(),
			FixedSize:    c.FixedSize(),
		}
		if desc.Variable {
			desc.VarOrder = varCount
			varCount++
		}
		layout.Columns = append(layout.Columns, desc)
	}

	// Fixed-column offsets are assigned packed, in declaration order,
	// skipping variable and null-mask-only columns (spec §4.2 "fixed
	// column region... iterated in column order").
	offset := 0
	for i := range layout.Columns {
		if layout.Columns[i].Variable || layout.Columns[i].NullMaskOnly {
			continue
		}
		layout.Columns[i].FixedDataOffset = offset
		offset += layout.Columns[i].FixedSize
	}

	layout.MaxColumnCount = len(t.Columns)
	layout.MaxVarColumnCount = varCount
	return layout
}
