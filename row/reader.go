package row

import "fmt"

// FieldValue is what ReadValue returns for one column: either the raw
// on-disk bytes (ready for column.Read), or a null/boolean flag for columns
// that never have a byte region.
type FieldValue struct {
	Bytes  []byte
	IsNull bool
	IsTrue bool // meaningful only when the column is NullMaskOnly
}

// ReadValue locates one column's value within a parsed row buffer, per the
// read path in spec §4.2.
func ReadValue(buf []byte, layout *Layout, name string) (FieldValue, error) {
	col, err := layout.column(name)
	if err != nil {
		return FieldValue{}, err
	}
	return readColumn(buf, layout, col)
}

// ReadRow decodes every column in layout, in column order; it is the
// convenience form table/relationship use when they need the whole row
// rather than one field.
func ReadRow(buf []byte, layout *Layout) (map[string]FieldValue, error) {
	out := make(map[string]FieldValue, len(layout.Columns))
	for i := range layout.Columns {
		v, err := readColumn(buf, layout, &layout.Columns[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", layout.Columns[i].Name, err)
		}
		out[layout.Columns[i].Name] = v
	}
	return out, nil
}

func readColumn(buf []byte, layout *Layout, col *ColumnDesc) (FieldValue, error) {
	nullMaskSize := layout.NullMaskSize()
	if len(buf) < trailerSize(layout) {
		return FieldValue{}, ErrShortRow
	}
	nullMaskStart := len(buf) - nullMaskSize
	nullMask := buf[nullMaskStart:]

	idx := colOrdinal(layout, col)
	notNull := (nullMask[idx/8] & (1 << uint(idx%8))) != 0

	if col.NullMaskOnly {
		return FieldValue{IsTrue: notNull, IsNull: !notNull}, nil
	}
	if !notNull {
		return FieldValue{IsNull: true}, nil
	}
	if !col.Variable {
		start := FixedDataRowOffset + col.FixedDataOffset
		end := start + col.FixedSize
		if end > len(buf) {
			return FieldValue{}, ErrShortRow
		}
		return FieldValue{Bytes: buf[start:end]}, nil
	}

	offsets, eod, err := readVarOffsets(buf, layout)
	if err != nil {
		return FieldValue{}, err
	}
	i := col.VarOrder
	start := offsets[i]
	end := eod
	if i+1 < len(offsets) {
		end = offsets[i+1]
	}
	if start < 0 || end > len(buf) || end < start {
		return FieldValue{}, ErrShortRow
	}
	return FieldValue{Bytes: buf[start:end]}, nil
}

func colOrdinal(layout *Layout, col *ColumnDesc) int {
	for i := range layout.Columns {
		if &layout.Columns[i] == col {
			return i
		}
	}
	return -1
}

// readVarOffsets reconstructs the variable-column offset table and the EOD
// marker, inverting whichever OffsetFormat the layout uses.
func readVarOffsets(buf []byte, layout *Layout) ([]int, int, error) {
	nullMaskSize := layout.NullMaskSize()
	n := layout.MaxVarColumnCount
	limit := len(buf)

	varCountPos := limit - nullMaskSize - 2
	if varCountPos < 0 {
		return nil, 0, ErrShortRow
	}

	switch layout.Format {
	case JumpTable:
		// Trailer order is EOD, reversed lowBytes, jumps, jumpCount byte,
		// varCount, nullMask — jumpCount sits immediately before varCount so
		// its position is fixed, letting the jumps array's (data-dependent)
		// length be read before needing to locate anything earlier.
		jumpCountPos := varCountPos - 1
		if jumpCountPos < 0 {
			return nil, 0, ErrShortRow
		}
		jumpCount := int(buf[jumpCountPos])
		jumpsStart := jumpCountPos - jumpCount
		lowStart := jumpsStart - n
		eodPosActual := lowStart - 2
		if eodPosActual < 0 {
			return nil, 0, ErrShortRow
		}
		jumps := buf[jumpsStart:jumpCountPos]
		eod := int(uint16(buf[eodPosActual]) | uint16(buf[eodPosActual+1])<<8)

		lowBytes := make([]byte, n)
		for i := 0; i < n; i++ {
			lowBytes[i] = buf[lowStart+(n-1-i)]
		}
		offsets := make([]int, n)
		base := 0
		jumpPtr := 0
		for i := 0; i < n; i++ {
			for jumpPtr < len(jumps) && int(jumps[jumpPtr]) == i {
				base += 256
				jumpPtr++
			}
			offsets[i] = int(lowBytes[i]) + base
		}
		return offsets, eod, nil

	default:
		offsetsStart := varCountPos - 2*n
		eodPos := offsetsStart - 2
		if eodPos < 0 {
			return nil, 0, ErrShortRow
		}
		eod := int(uint16(buf[eodPos]) | uint16(buf[eodPos+1])<<8)
		offsets := make([]int, n)
		for i := 0; i < n; i++ {
			pos := varCountPos - 2 - 2*i
			offsets[i] = int(uint16(buf[pos]) | uint16(buf[pos+1])<<8)
		}
		return offsets, eod, nil
	}
}
