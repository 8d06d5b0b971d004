// Package page implements the two on-disk page formats the engine mutates
// directly: data pages (row slot directory + row bodies, spec §3) and index
// pages (prefix-compressed B-tree leaf/node pages, spec §4.4). It is
// adapted from the teacher's page/ package, which parsed InnoDB's FIL
// header/trailer and fseg allocation header; the fixed-header-plus-growing-
// directory shape carries over, but the header fields, slot packing and
// page types below belong to this format.
package page

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Type distinguishes what a page holds.
type Type byte

const (
	TypeData Type = iota + 1
	TypeIndexLeaf
	TypeIndexNode
	TypeTableDef
	TypeFree
)

const (
	// DataHeaderSize is the fixed data-page header: type(1) + freeSpace(2) +
	// tdefPageNumber(4) + rowCount(2).
	DataHeaderSize = 9

	// SlotSize is the width of one row-slot directory entry.
	SlotSize = 2

	// DeletedRowMask, OverflowRowMask and ShadowRowMask are the flag bits
	// packed into a slot alongside the 13-bit row start offset (spec §3).
	// ShadowRowMask marks a slot whose body is a live row relocated here by
	// an update_row grow, but which is reachable only through the original
	// slot's overflow pointer, not as an independent row (spec §4.5 "Row
	// update").
	DeletedRowMask  uint16 = 0x8000
	OverflowRowMask uint16 = 0x4000
	ShadowRowMask   uint16 = 0x2000
	offsetMask      uint16 = 0x1FFF
)

var (
	ErrShortPage    = errors.New("page: buffer shorter than page size")
	ErrSlotOutOfRng = errors.New("page: slot index out of range")
	ErrPageFull     = errors.New("page: not enough free space for row")
)

// DataPage is a parsed view over one page-sized buffer holding table rows.
// Row bodies are appended from the end of the buffer backward; the slot
// directory grows from the end of the header forward, so free space is
// whatever lies between the directory's last slot and the lowest row body
// start.
type DataPage struct {
	buf          []byte
	Size         int
	PageType     Type
	TdefPageNum  uint32
	modifiedFree bool
}

// NewDataPage creates an empty data page of the given size, owned by the
// table-definition page tdefPageNum.
func NewDataPage(size int, tdefPageNum uint32) *DataPage {
	buf := make([]byte, size)
	buf[0] = byte(TypeData)
	binary.LittleEndian.PutUint32(buf[3:7], tdefPageNum)
	p := &DataPage{buf: buf, Size: size, PageType: TypeData, TdefPageNum: tdefPageNum}
	p.setFreeSpace(size - DataHeaderSize)
	return p
}

// ParseDataPage wraps an existing page-sized buffer for reading/mutation.
func ParseDataPage(buf []byte) (*DataPage, error) {
	if len(buf) < DataHeaderSize {
		return nil, ErrShortPage
	}
	p := &DataPage{buf: buf, Size: len(buf)}
	p.PageType = Type(buf[0])
	p.TdefPageNum = binary.LittleEndian.Uint32(buf[3:7])
	return p, nil
}

func (p *DataPage) Bytes() []byte { return p.buf }

func (p *DataPage) FreeSpace() int { return int(binary.LittleEndian.Uint16(p.buf[1:3])) }

func (p *DataPage) setFreeSpace(n int) { binary.LittleEndian.PutUint16(p.buf[1:3], uint16(n)) }

func (p *DataPage) RowCount() int { return int(binary.LittleEndian.Uint16(p.buf[7:9])) }

func (p *DataPage) setRowCount(n int) { binary.LittleEndian.PutUint16(p.buf[7:9], uint16(n)) }

func (p *DataPage) slotOffset(slot int) int { return DataHeaderSize + slot*SlotSize }

func (p *DataPage) readSlot(slot int) (uint16, error) {
	if slot < 0 || slot >= p.RowCount() {
		return 0, ErrSlotOutOfRng
	}
	off := p.slotOffset(slot)
	return binary.LittleEndian.Uint16(p.buf[off : off+2]), nil
}

func (p *DataPage) writeSlot(slot int, v uint16) {
	off := p.slotOffset(slot)
	binary.LittleEndian.PutUint16(p.buf[off:off+2], v)
}

// SlotInfo is a decoded directory entry.
type SlotInfo struct {
	RowStart int
	Deleted  bool
	Overflow bool
	Shadow   bool
}

func (p *DataPage) Slot(slot int) (SlotInfo, error) {
	raw, err := p.readSlot(slot)
	if err != nil {
		return SlotInfo{}, err
	}
	return SlotInfo{
		RowStart: int(raw & offsetMask),
		Deleted:  raw&DeletedRowMask != 0,
		Overflow: raw&OverflowRowMask != 0,
		Shadow:   raw&ShadowRowMask != 0,
	}, nil
}

// lowestRowStart returns the smallest row-body start offset currently in
// use, or p.Size if there are no live row bodies yet.
func (p *DataPage) lowestRowStart() int {
	lowest := p.Size
	for i := 0; i < p.RowCount(); i++ {
		raw, _ := p.readSlot(i)
		start := int(raw & offsetMask)
		if start > 0 && start < lowest {
			lowest = start
		}
	}
	return lowest
}

// AddRow appends data as a new row body and allocates a directory slot for
// it, returning the new row's slot index (its RowId.RowNumber). It fails
// with ErrPageFull if data plus a new slot do not fit in the free region.
func (p *DataPage) AddRow(data []byte) (int, error) {
	need := len(data) + SlotSize
	if need > p.FreeSpace() {
		return 0, ErrPageFull
	}
	start := p.lowestRowStart() - len(data)
	if start < p.slotOffset(p.RowCount()+1) {
		return 0, ErrPageFull
	}
	copy(p.buf[start:start+len(data)], data)

	slot := p.RowCount()
	p.setRowCount(slot + 1)
	p.writeSlot(slot, uint16(start)&offsetMask)
	p.setFreeSpace(p.FreeSpace() - need)
	return slot, nil
}

// RowBytes returns the live row body bytes at slot, following the
// overflow-row indirection: when the slot is marked both deleted and
// overflow, its body holds a 1-byte row number + 3-byte page number
// pointing at the real row elsewhere (spec §3 "Overflow row"); the caller
// resolves that redirection via a PageChannel and calls RowBytes on the
// target page, so RowBytes itself only returns the raw bytes and an
// OverflowPointer when one is present.
func (p *DataPage) RowBytes(slot int) ([]byte, *OverflowPointer, error) {
	info, err := p.Slot(slot)
	if err != nil {
		return nil, nil, err
	}
	if info.Deleted && !info.Overflow {
		return nil, nil, fmt.Errorf("page: slot %d is deleted", slot)
	}
	end := p.Size
	if info.RowStart <= 0 {
		return nil, nil, fmt.Errorf("page: slot %d has no row body", slot)
	}
	// the smallest start strictly greater than this row's own bounds the end
	for i := 0; i < p.RowCount(); i++ {
		other, _ := p.Slot(i)
		if other.RowStart > info.RowStart && other.RowStart < end {
			end = other.RowStart
		}
	}
	body := p.buf[info.RowStart:end]
	if info.Overflow {
		if len(body) < 4 {
			return nil, nil, fmt.Errorf("page: truncated overflow pointer at slot %d", slot)
		}
		op := &OverflowPointer{
			RowNumber:  body[0],
			PageNumber: uint32(body[1]) | uint32(body[2])<<8 | uint32(body[3])<<16,
		}
		return body, op, nil
	}
	return body, nil, nil
}

// OverflowPointer is the decoded body of a row marked deleted+overflow.
type OverflowPointer struct {
	RowNumber  byte
	PageNumber uint32
}

// MarkOverflow rewrites slot's directory entry to point at a row relocated
// to (pageNumber, rowNumber), and stores the 4-byte pointer as the slot's
// new body (spec §3 "Overflow row").
func (p *DataPage) MarkOverflow(slot int, pageNumber uint32, rowNumber byte) error {
	info, err := p.Slot(slot)
	if err != nil {
		return err
	}
	body := []byte{rowNumber, byte(pageNumber), byte(pageNumber >> 8), byte(pageNumber >> 16)}
	copy(p.buf[info.RowStart:info.RowStart+len(body)], body)
	raw := uint16(info.RowStart)&offsetMask | DeletedRowMask | OverflowRowMask
	p.writeSlot(slot, raw)
	return nil
}

// MarkShadow flags slot's row body as a shadow: real row bytes that must be
// excluded from a page scan because some other slot's overflow pointer is
// the row's only valid address (spec §4.5 "Row update"). Unlike
// MarkOverflow, the slot's body is left untouched.
func (p *DataPage) MarkShadow(slot int) error {
	raw, err := p.readSlot(slot)
	if err != nil {
		return err
	}
	p.writeSlot(slot, raw|ShadowRowMask)
	return nil
}

// DeleteRow marks slot deleted without reclaiming its space; nothing in
// this package compacts a page afterwards.
func (p *DataPage) DeleteRow(slot int) error {
	raw, err := p.readSlot(slot)
	if err != nil {
		return err
	}
	p.writeSlot(slot, raw|DeletedRowMask)
	return nil
}

// ErrRowSizeChanged is returned by RewriteRow when data is not exactly the
// size of the row body currently occupying slot; the table engine falls
// back to a delete-then-add shadow (via MarkOverflow) in that case.
var ErrRowSizeChanged = errors.New("page: rewrite data is not the same size as the existing row")

// RewriteRow overwrites slot's row body in place with data, used for the
// update_row fast path where the new encoding is exactly as large as the
// old one (spec §4.5 "Row update": "rewrite in place" when new_size ==
// old_size). The slot's directory entry, and the row's identity, are
// unchanged.
func (p *DataPage) RewriteRow(slot int, data []byte) error {
	body, overflow, err := p.RowBytes(slot)
	if err != nil {
		return err
	}
	if overflow != nil {
		return fmt.Errorf("page: slot %d is an overflow pointer, not a row body", slot)
	}
	if len(data) != len(body) {
		return ErrRowSizeChanged
	}
	copy(body, data)
	return nil
}
