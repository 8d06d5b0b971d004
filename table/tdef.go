// tdef.go implements table-definition mutation (spec §4.5 "Table-definition
// mutation"): linearizing a schema.Table's current columns and indexes into
// a contiguous buffer, chunking that buffer across a chain of tdef pages
// linked by next_tdef_page, and persisting the chain, growing it with
// freshly allocated pages when the definition no longer fits in the pages
// it already has. It is adapted from page.DataPage's own header-plus-body
// shape (package page's doc comment: "fixed-header-plus-growing-directory"),
// generalized from a single page to a page chain.
package table

import (
	"encoding/binary"
	"fmt"

	"github.com/jetdb/jetdb/column"
	"github.com/jetdb/jetdb/jeterr"
	"github.com/jetdb/jetdb/page"
	"github.com/jetdb/jetdb/schema"
)

const (
	// tdefHeaderSize is the per-page header written on every tdef page:
	// type(1) + unknown(1, always 0x01 per spec §6) + freeSpace(u16) +
	// next_tdef_page(u32).
	tdefHeaderSize = 8

	// tdefBodyHeaderSize is the header of the linearized buffer obtained by
	// concatenating every tdef page's body in chain order: MaxColumnCount
	// (u16), MaxVarColumnCount (u16), ColumnCount (u16), IndexCount (u16),
	// TotalLength (u16).
	tdefBodyHeaderSize = 10

	// tdefColumnDescSize is one column's fixed-size descriptor: flag(1) +
	// extFlag(1) + type(1) + ordinal(u16) + varOrder(u16) + fixedSize(u16) +
	// scale(1). Spec §6 "Column flag byte on tdef" / "Ext flag byte".
	tdefColumnDescSize = 10

	// tdefIndexEntrySize is one column reference within an index descriptor:
	// ordinal(u16) + ascending(1).
	tdefIndexEntrySize = 3

	noVarOrder = 0xFFFF
)

// Column flag byte bits (spec §6 "Column flag byte on tdef").
const (
	colFlagFixedLength    byte = 0x01
	colFlagUpdatable      byte = 0x02
	colFlagAutonumberLong byte = 0x04
	colFlagAutonumberGUID byte = 0x40
	colFlagHyperlink      byte = 0x80
)

// Column ext flag byte bits (spec §6 "Ext flag byte").
const (
	extFlagCompressedUnicode byte = 0x01
	extFlagCalculated        byte = 0xC0
)

// Index flag byte bits (spec §6 "Index flag byte"). Only Unique is modeled
// by IndexSpec today; IgnoreNulls and Required have no backing field yet.
const (
	idxFlagUnique byte = 0x01
)

func columnFlagByte(c *schema.Column) byte {
	var b byte
	if !c.IsVariableLength() && !c.IsNullMaskOnly() {
		b |= colFlagFixedLength
	}
	if !c.IsCalculated {
		b |= colFlagUpdatable
	}
	if c.IsAutonumber {
		switch c.Spec.Type {
		case column.TypeGUID:
			b |= colFlagAutonumberGUID
		default:
			b |= colFlagAutonumberLong
		}
	}
	if c.IsHyperlink {
		b |= colFlagHyperlink
	}
	return b
}

func columnExtFlagByte(c *schema.Column) byte {
	var b byte
	if c.Spec.TextCompressed {
		b |= extFlagCompressedUnicode
	}
	if c.IsCalculated {
		b |= extFlagCalculated
	}
	return b
}

func indexFlagByte(ix *IndexSpec) byte {
	var b byte
	if ix.Unique {
		b |= idxFlagUnique
	}
	return b
}

func putNameEntry(dst []byte, name string) []byte {
	entry := make([]byte, 2+len(name))
	binary.LittleEndian.PutUint16(entry, uint16(len(name)))
	copy(entry[2:], name)
	return append(dst, entry...)
}

// encodeTdefBody linearizes e's current table definition into a single
// contiguous buffer, following the block order spec §4.5 describes: header,
// column descriptors, index descriptors, name table, usage-map references.
// Column and index ordinals match row.Layout's (BuildLayout assigns VarOrder
// by walking Columns in the same order), so the tdef chain and the live row
// layout never disagree about which slot a column occupies.
func encodeTdefBody(e *Engine) ([]byte, error) {
	tbl := e.Table

	header := make([]byte, tdefBodyHeaderSize)
	binary.LittleEndian.PutUint16(header[0:2], uint16(e.Layout.MaxColumnCount))
	binary.LittleEndian.PutUint16(header[2:4], uint16(e.Layout.MaxVarColumnCount))
	binary.LittleEndian.PutUint16(header[4:6], uint16(len(tbl.Columns)))
	binary.LittleEndian.PutUint16(header[6:8], uint16(len(e.Indexes)))
	// header[8:10] (TotalLength) is patched once the body's final size is known.

	var cols, idxs, names, usage []byte
	names = putNameEntry(names, tbl.Name)

	varOrder := 0
	for _, c := range tbl.Columns {
		desc := make([]byte, tdefColumnDescSize)
		desc[0] = columnFlagByte(c)
		desc[1] = columnExtFlagByte(c)
		desc[2] = byte(c.Spec.Type)
		binary.LittleEndian.PutUint16(desc[3:5], uint16(c.Index))
		vo := uint16(noVarOrder)
		if c.IsVariableLength() {
			vo = uint16(varOrder)
			varOrder++
			// The long-value body itself is stored inline in the row (column
			// package: "same wire encoding as Text, long-value backed" is not
			// implemented as a separate page chain), so every variable-length
			// column gets one placeholder usage-map reference and it is always
			// absent (0).
			usage = binary.LittleEndian.AppendUint32(usage, 0)
		}
		binary.LittleEndian.PutUint16(desc[5:7], vo)
		binary.LittleEndian.PutUint16(desc[7:9], uint16(c.FixedSize()))
		desc[9] = byte(c.Spec.Scale)
		cols = append(cols, desc...)
		names = putNameEntry(names, c.Name)
	}

	for _, ix := range e.Indexes {
		desc := make([]byte, 2, 2+tdefIndexEntrySize*len(ix.Columns))
		desc[0] = indexFlagByte(ix)
		desc[1] = byte(len(ix.Columns))
		for i, c := range ix.Columns {
			entry := make([]byte, tdefIndexEntrySize)
			binary.LittleEndian.PutUint16(entry[0:2], uint16(c.Index))
			if ix.Ascending[i] {
				entry[2] = 1
			}
			desc = append(desc, entry...)
		}
		idxs = append(idxs, desc...)
		names = putNameEntry(names, ix.Name)
	}

	body := append(header, cols...)
	body = append(body, idxs...)
	body = append(body, names...)
	body = append(body, usage...)

	if len(body) > 0xFFFF {
		return nil, fmt.Errorf("table: definition is %d bytes, exceeds the 65535-byte length field", len(body))
	}
	binary.LittleEndian.PutUint16(body[8:10], uint16(len(body)))
	return body, nil
}

// splitTdefBody chunks body into page-sized pieces, one per tdef page.
func splitTdefBody(body []byte, chunkSize int) [][]byte {
	if chunkSize <= 0 {
		return [][]byte{body}
	}
	chunks := make([][]byte, 0, len(body)/chunkSize+1)
	for len(body) > chunkSize {
		chunks = append(chunks, body[:chunkSize])
		body = body[chunkSize:]
	}
	return append(chunks, body)
}

// WriteTdef persists e's current table definition (its schema.Table plus
// Indexes) to its tdef page chain starting at e.TdefPage, following spec
// §4.5's mutation sequence: compute the added-length budget against the
// chain's existing page count, grow the chain with freshly allocated pages
// only as far as needed, patch each page's header and next_tdef_page link,
// and write the pages back. If the definition no longer fits within
// Format.MaxTdefPages, or any page write fails, the cached linearized
// buffer is invalidated so the next reader re-derives it instead of serving
// a half-written version.
func (e *Engine) WriteTdef() error {
	body, err := encodeTdefBody(e)
	if err != nil {
		e.tdefCache = nil
		return jeterr.InvalidValue(jeterr.Context{Table: e.Table.Name}, "table definition does not fit", err)
	}

	chunkSize := e.Format.PageSize - tdefHeaderSize
	chunks := splitTdefBody(body, chunkSize)
	if len(chunks) > e.Format.MaxTdefPages {
		e.tdefCache = nil
		return jeterr.InvalidValue(jeterr.Context{Table: e.Table.Name},
			fmt.Sprintf("table definition needs %d pages, format allows at most %d", len(chunks), e.Format.MaxTdefPages), nil)
	}

	pageNums, err := e.tdefChainPages(len(chunks))
	if err != nil {
		e.tdefCache = nil
		return err
	}

	for i, chunk := range chunks {
		buf := make([]byte, e.Format.PageSize)
		buf[0] = byte(page.TypeTableDef)
		buf[1] = 0x01
		binary.LittleEndian.PutUint16(buf[2:4], uint16(len(buf)-tdefHeaderSize-len(chunk)))
		var next uint32
		if i+1 < len(chunks) {
			next = pageNums[i+1]
		}
		binary.LittleEndian.PutUint32(buf[4:8], next)
		copy(buf[tdefHeaderSize:], chunk)
		if err := e.Channel.WritePage(buf, int(pageNums[i])); err != nil {
			e.tdefCache = nil
			return jeterr.Io(jeterr.Context{Table: e.Table.Name}, "writing tdef page", err)
		}
	}

	e.tdefCache = body
	return nil
}

// tdefChainPages returns the page numbers of the first need pages of e's
// tdef chain, reusing whatever pages already exist (walking next_tdef_page
// from e.TdefPage) and allocating fresh ones only for the shortfall.
func (e *Engine) tdefChainPages(need int) ([]uint32, error) {
	pageNums := []uint32{e.TdefPage}
	for len(pageNums) < need {
		buf := e.Channel.CreatePageBuffer()
		if err := e.Channel.ReadPage(buf, int(pageNums[len(pageNums)-1])); err != nil {
			return nil, jeterr.Io(jeterr.Context{Table: e.Table.Name}, "reading tdef chain", err)
		}
		next := binary.LittleEndian.Uint32(buf[4:8])
		if next == 0 {
			break
		}
		pageNums = append(pageNums, next)
	}
	for len(pageNums) < need {
		n, err := e.Channel.AllocateNewPage()
		if err != nil {
			return nil, jeterr.Io(jeterr.Context{Table: e.Table.Name}, "allocating tdef page", err)
		}
		pageNums = append(pageNums, uint32(n))
		e.Pages.Add(n)
	}
	return pageNums, nil
}

// TdefBytes returns the linearized table-definition buffer last written by
// WriteTdef, recomputing it from the live schema.Table/Indexes if nothing
// has been cached yet or a prior write failed.
func (e *Engine) TdefBytes() ([]byte, error) {
	if e.tdefCache != nil {
		return e.tdefCache, nil
	}
	return encodeTdefBody(e)
}

// AddColumn appends col to the table and persists the grown definition
// (spec §4.5 "Table-definition mutation"). On a tdef-page write failure the
// column addition is rolled back so the in-memory schema.Table matches what
// is actually on disk.
func (e *Engine) AddColumn(col *schema.Column) error {
	if err := e.Table.AddColumn(col); err != nil {
		return err
	}
	e.RebuildLayout()
	if err := e.WriteTdef(); err != nil {
		e.Table.RemoveLastColumn()
		e.RebuildLayout()
		return err
	}
	return nil
}

// AddIndex registers spec as a new index and persists the grown definition.
// On a tdef-page write failure the index registration is rolled back.
func (e *Engine) AddIndex(spec *IndexSpec) error {
	e.Indexes = append(e.Indexes, spec)
	if err := e.WriteTdef(); err != nil {
		e.Indexes = e.Indexes[:len(e.Indexes)-1]
		return err
	}
	return nil
}
