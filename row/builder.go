package row

import "fmt"

// Value is one column's already-encoded on-disk bytes, ready to be placed
// into a row by BuildRow. Bytes is nil for a null value (or for a
// null-mask-only Boolean column, where IsTrue carries the value instead).
// Reused marks a variable value as a previously-written raw image the
// caller is re-submitting unchanged (the update_row optimization named in
// spec §4.2 step 5); BuildRow does not read it, and the bytes written are
// the same whether or not it is set.
type Value struct {
	Bytes  []byte
	IsNull bool
	IsTrue bool
	Reused bool
}

// BuildRow lays out one row's bytes per spec §4.2. values must have exactly
// len(layout.Columns) entries, aligned by index.
func BuildRow(layout *Layout, values []Value) ([]byte, error) {
	if len(values) != len(layout.Columns) {
		return nil, fmt.Errorf("row: got %d values for %d columns", len(values), len(layout.Columns))
	}

	nullMask := make([]byte, layout.NullMaskSize())
	setNull := func(idx int, isNull bool) {
		if !isNull {
			nullMask[idx/8] |= 1 << uint(idx%8)
		}
	}

	// Fixed-column region.
	fixedEnd := FixedDataRowOffset
	for i, col := range layout.Columns {
		if col.Variable {
			continue
		}
		v := values[i]
		if col.NullMaskOnly {
			if v.IsTrue {
				setNull(i, false)
			} else {
				setNull(i, true)
			}
			continue
		}
		if v.IsNull {
			setNull(i, true)
			continue
		}
		setNull(i, false)
		if len(v.Bytes) != col.FixedSize {
			return nil, fmt.Errorf("%w: column %q wrote %d bytes, want %d", ErrRowTooLarge, col.Name, len(v.Bytes), col.FixedSize)
		}
		end := FixedDataRowOffset + col.FixedDataOffset + col.FixedSize
		if end > fixedEnd {
			fixedEnd = end
		}
	}
	buf := make([]byte, fixedEnd, fixedEnd+64)
	for i, col := range layout.Columns {
		if col.Variable || col.NullMaskOnly {
			continue
		}
		v := values[i]
		if v.IsNull {
			continue
		}
		start := FixedDataRowOffset + col.FixedDataOffset
		copy(buf[start:start+col.FixedSize], v.Bytes)
	}
	writeUint16(buf, 0, uint16(layout.MaxColumnCount))

	// Variable-column region, iterated in offset-table order.
	varCols := make([]*ColumnDesc, layout.MaxVarColumnCount)
	varValues := make([]*Value, layout.MaxVarColumnCount)
	for i := range layout.Columns {
		col := &layout.Columns[i]
		if !col.Variable {
			continue
		}
		varCols[col.VarOrder] = col
		varValues[col.VarOrder] = &values[i]
	}

	varOffsets := make([]int, layout.MaxVarColumnCount)
	remaining := layout.MaxRowSize - fixedEnd - trailerSize(layout)
	pos := fixedEnd
	for i := 0; i < layout.MaxVarColumnCount; i++ {
		varOffsets[i] = pos
		col := varCols[i]
		if col == nil {
			continue // deleted column slot: offset repeats the previous position
		}
		idx := colIndex(layout, col)
		v := values[idx]
		if v.IsNull {
			setNull(idx, true)
			continue
		}
		setNull(idx, false)
		remaining -= len(v.Bytes)
		if remaining < 0 {
			return nil, fmt.Errorf("%w: row grew past MAX_ROW_SIZE (%d)", ErrRowTooLarge, layout.MaxRowSize)
		}
		buf = append(buf, v.Bytes...)
		pos += len(v.Bytes)
	}
	eod := pos

	for len(buf) < layout.MinRowSize-trailerSize(layout) {
		buf = append(buf, 0)
		eod = len(buf)
	}

	trailer, err := buildTrailer(layout, eod, varOffsets, nullMask)
	if err != nil {
		return nil, err
	}
	buf = append(buf, trailer...)

	if len(buf) > layout.MaxRowSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrRowTooLarge, len(buf), layout.MaxRowSize)
	}
	return buf, nil
}

func colIndex(layout *Layout, col *ColumnDesc) int {
	for i := range layout.Columns {
		if &layout.Columns[i] == col {
			return i
		}
	}
	return -1
}

func trailerSize(layout *Layout) int {
	switch layout.Format {
	case JumpTable:
		// EOD(2) + jumpCount(1) + worst-case one jump per entry(N) + offsets(N, 1B each) + varCount(2) + nullMask
		return 2 + 1 + layout.MaxVarColumnCount + layout.MaxVarColumnCount + 2 + layout.NullMaskSize()
	default:
		return 2 + 2*layout.MaxVarColumnCount + 2 + layout.NullMaskSize()
	}
}

// buildTrailer writes the EOD marker, the variable-offset table (in
// reverse, per spec §4.2 step 7), the variable column count, and the null
// mask.
func buildTrailer(layout *Layout, eod int, varOffsets []int, nullMask []byte) ([]byte, error) {
	var out []byte
	eodBuf := make([]byte, 2)
	writeUint16(eodBuf, 0, uint16(eod))

	switch layout.Format {
	case JumpTable:
		lowBytes := make([]byte, len(varOffsets))
		var jumps []byte
		base := 0
		for i, off := range varOffsets {
			for off-base >= 256 {
				base += 256
				jumps = append(jumps, byte(i))
			}
			lowBytes[i] = byte(off - base)
		}
		out = append(out, eodBuf...)
		for i := len(lowBytes) - 1; i >= 0; i-- {
			out = append(out, lowBytes[i])
		}
		out = append(out, jumps...)
		out = append(out, byte(len(jumps)))
	default:
		out = append(out, eodBuf...)
		for i := len(varOffsets) - 1; i >= 0; i-- {
			ob := make([]byte, 2)
			writeUint16(ob, 0, uint16(varOffsets[i]))
			out = append(out, ob...)
		}
	}

	countBuf := make([]byte, 2)
	writeUint16(countBuf, 0, uint16(layout.MaxVarColumnCount))
	out = append(out, countBuf...)
	out = append(out, nullMask...)
	return out, nil
}

func writeUint16(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}
