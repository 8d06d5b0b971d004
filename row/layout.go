// Package row lays out and parses one full row's bytes within a data page:
// the null mask, the fixed-column region, the variable-column region (with
// its two offset sub-formats), and the trailer (spec §4.2, component C3).
// It is adapted from the teacher's record/ package, which walked InnoDB's
// compact record format (variable-length headers + NULL bitmap stored
// backwards from a 5-byte record header); the backwards-trailer, null-mask,
// and variable-length bookkeeping shape carries over, but the trailer
// layout, offset encodings and column model below are this format's own.
package row

import "errors"

var (
	ErrRowTooLarge    = errors.New("row: encoded row exceeds MAX_ROW_SIZE")
	ErrShortRow       = errors.New("row: buffer too small to contain row trailer")
	ErrColumnNotFound = errors.New("row: column not present in layout")
)

// OffsetFormat selects which of the two variable-column offset encodings a
// Layout uses (spec §4.2 read path): ShortOffset stores 2-byte absolute
// offsets; JumpTable stores 1-byte offsets plus a wrap-marker table, for a
// denser trailer.
type OffsetFormat int

const (
	ShortOffset OffsetFormat = iota
	JumpTable
)

// FixedDataRowOffset is the distance from the start of a row's bytes to the
// first byte of the fixed-column region: the 2-byte column count header.
const FixedDataRowOffset = 2

// ColumnDesc is the layout information row needs about one column; it knows
// nothing about the column's value type, only where its bytes live.
type ColumnDesc struct {
	Name            string
	NullMaskOnly    bool // Boolean: stores only a null-mask bit, zero-width
	Variable        bool
	FixedDataOffset int // offset within the fixed-column region (non-variable, non-null-mask-only columns)
	FixedSize       int
	VarOrder        int // this column's position in variable-offset-table order (variable columns only)
}

// Layout describes everything BuildRow/ReadValue need about a row's shape.
// A table's Layout is rebuilt whenever a column is added or dropped;
// MaxColumnCount and MaxVarColumnCount may exceed the live column count
// because deleted columns still reserve index slots other rows may use
// (spec §4.2 step 1).
type Layout struct {
	Columns           []ColumnDesc
	MaxColumnCount    int
	MaxVarColumnCount int
	MaxRowSize        int
	MinRowSize        int
	Format            OffsetFormat
}

// NullMaskSize is the byte width of the null mask: one bit per
// MaxColumnCount column, rounded up.
func (l *Layout) NullMaskSize() int {
	return (l.MaxColumnCount + 7) / 8
}

func (l *Layout) column(name string) (*ColumnDesc, error) {
	for i := range l.Columns {
		if l.Columns[i].Name == name {
			return &l.Columns[i], nil
		}
	}
	return nil, ErrColumnNotFound
}
