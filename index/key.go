// Package index implements the B-tree index engine: sortable key encoding
// (spec §4.3), prefix-compressed leaf/node pages via the page package, a
// cached page tree with cursor traversal, and the pending-change
// commit/rollback protocol (spec §4.4). It is adapted from the teacher's
// page/index.go (InnoDB's B+-tree index header parsing, clustered/
// secondary distinction) and record/ (its key-comparison helpers); the
// cache-mediated split/merge shape below is new — InnoDB's on-disk index
// pages are read-only in the teacher repo, never built or split there.
package index

import (
	"math"
	"math/big"
	"unicode"

	"github.com/jetdb/jetdb/column"
)

// Header flag bytes separating null/non-null entries (spec §4.3). The
// ascending null flag sorts below the ascending start flag so nulls come
// first; for descending columns the whole order is inverted, so the
// descending null flag must sort above the descending start flag.
const (
	nullEntryFlagAsc  byte = 0x00
	startEntryFlagAsc byte = 0x01
	nullEntryFlagDesc byte = 0xFF
	startEntryFlagDesc byte = 0xFE
)

func header(ascending, isNull bool) byte {
	switch {
	case isNull && ascending:
		return nullEntryFlagAsc
	case isNull && !ascending:
		return nullEntryFlagDesc
	case !isNull && ascending:
		return startEntryFlagAsc
	default:
		return startEntryFlagDesc
	}
}

func flipAll(b []byte) []byte {
	for i := range b {
		b[i] = ^b[i]
	}
	return b
}

// EncodeNull emits the header byte for a null value in a column flagged
// ascending or descending.
func EncodeNull(ascending bool) []byte {
	return []byte{header(ascending, true)}
}

// EncodeInt encodes a signed integer of the given byte width (1, 2, 4, or
// 8) as a sortable key body: big-endian two's complement with the sign bit
// flipped, then bytewise complemented for descending columns (spec §4.3).
func EncodeInt(v int64, width int, ascending bool) []byte {
	out := make([]byte, 0, 1+width)
	out = append(out, header(ascending, false))
	body := make([]byte, width)
	u := uint64(v)
	for i := width - 1; i >= 0; i-- {
		body[i] = byte(u)
		u >>= 8
	}
	body[0] ^= 0x80
	if !ascending {
		flipAll(body)
	}
	return append(out, body...)
}

// EncodeFloat encodes a float32/float64 via the standard monotonic
// bit-transform (complement all bits when negative, else just set the sign
// bit) so unsigned big-endian comparison matches IEEE-754 ordering; the
// whole body is then complemented again for descending columns (spec §4.3).
func EncodeFloat(f float64, is32 bool, ascending bool) []byte {
	out := []byte{header(ascending, false)}
	var body []byte
	if is32 {
		bits := math.Float32bits(float32(f))
		if bits&0x80000000 != 0 {
			bits = ^bits
		} else {
			bits |= 0x80000000
		}
		body = []byte{byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}
	} else {
		bits := math.Float64bits(f)
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		body = make([]byte, 8)
		for i := 7; i >= 0; i-- {
			body[i] = byte(bits)
			bits >>= 8
		}
	}
	if !ascending {
		flipAll(body)
	}
	return append(out, body...)
}

// NumericKeyVariant selects between the documented legacy sort-order bug
// and its fix (spec §4.3).
type NumericKeyVariant int

const (
	NumericLegacy NumericKeyVariant = iota
	NumericCurrent
)

// EncodeNumeric encodes a Numeric value's sign byte + 16-byte big-endian
// magnitude per one of the two historical variants.
func EncodeNumeric(n column.Numeric, ascending bool, variant NumericKeyVariant) []byte {
	mag := make([]byte, 16)
	if n.Unscaled != nil {
		raw := n.Unscaled.Bytes()
		copy(mag[16-len(raw):], raw)
	}

	out := []byte{header(ascending, false)}
	switch variant {
	case NumericLegacy:
		flip := n.Negative == ascending
		if flip {
			flipAll(mag)
		}
		sign := byte(0xFF)
		if n.Negative {
			sign = 0x00
		}
		return append(append(out, sign), mag...)
	default: // NumericCurrent
		if n.Negative {
			flipAll(mag)
		}
		sign := byte(0xFF)
		if n.Negative {
			sign = 0x00
		}
		body := append([]byte{sign}, mag...)
		if !ascending {
			flipAll(body)
		}
		return append(out, body...)
	}
}

// EncodeMoney reuses the integer encoder: Money is a plain scaled int64.
func EncodeMoney(m column.Money, ascending bool) []byte {
	return EncodeInt(int64(m), 8, ascending)
}

// BooleanKey is the single-byte encoding for a Boolean column value (spec
// §4.3: "one of four constants depending on (value, ascending)").
func BooleanKey(value, ascending bool) byte {
	switch {
	case value && ascending:
		return 0x01
	case !value && ascending:
		return 0x00
	case value && !ascending:
		return 0xFE
	default:
		return 0xFF
	}
}

func EncodeBoolean(value, ascending bool) []byte {
	return []byte{header(ascending, false), BooleanKey(value, ascending)}
}

// EncodeBinary partitions data into 8-byte segments for GUID/Binary keys
// (spec §4.3): each segment is 8 data bytes followed by a length byte (9 if
// more segments follow, else the count of valid bytes in the final,
// possibly short, segment). Descending flips intermediate data bytes
// (their 0x09 continuation marker stays unflipped) and flips the final
// segment including its length byte.
func EncodeBinary(data []byte, ascending bool) []byte {
	out := []byte{header(ascending, false)}
	for i := 0; ; i += 8 {
		end := i + 8
		last := end >= len(data)
		if last {
			end = len(data)
		}
		seg := make([]byte, 8)
		n := copy(seg, data[i:end])

		var lenByte byte
		if last {
			lenByte = byte(n)
		} else {
			lenByte = 9
		}
		if !ascending {
			if last {
				flipAll(seg)
				lenByte = ^lenByte
			} else {
				flipAll(seg)
			}
		}
		out = append(out, seg...)
		out = append(out, lenByte)
		if last {
			break
		}
	}
	return out
}

// EncodeGUID encodes a GUID's 16 raw bytes via EncodeBinary.
func EncodeGUID(raw [16]byte, ascending bool) []byte {
	return EncodeBinary(raw[:], ascending)
}

var extendedDateTimeTrailerAsc = []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02}
var extendedDateTimeTrailerDesc = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFD}

// EncodeExtendedDateTime encodes a 42-byte extended date/time value as five
// 8-byte blocks each followed by an unflipped 0x09 continuation marker,
// then a final 2-byte block, then a fixed 7-byte trailer (spec §4.3).
func EncodeExtendedDateTime(raw [42]byte, ascending bool) []byte {
	out := []byte{header(ascending, false)}
	for i := 0; i < 5; i++ {
		block := append([]byte(nil), raw[i*8:i*8+8]...)
		if !ascending {
			flipAll(block)
		}
		out = append(out, block...)
		out = append(out, 0x09)
	}
	final := append([]byte(nil), raw[40:42]...)
	if !ascending {
		flipAll(final)
	}
	out = append(out, final...)
	if ascending {
		out = append(out, extendedDateTimeTrailerAsc...)
	} else {
		out = append(out, extendedDateTimeTrailerDesc...)
	}
	return out
}

// TextCollation selects which of the three historical weight tables Encode
// uses. This engine implements one general-purpose weighting scheme (case-
// insensitive primary weight, case as a secondary tiebreak); the three
// named variants select the same algorithm, since the real per-codepage
// legacy/'97/general tables are outside this core's scope (DESIGN.md notes
// this simplification).
type TextCollation int

const (
	CollationGeneral TextCollation = iota
	CollationLegacy
	Collation97
)

// EncodeText produces a sortable key for a text value: a fixed-width
// "inline" section of per-rune primary weights (rune case-folded to its
// upper form, as a big-endian uint16), followed by an "extra" section of
// one byte per rune recording case (spec §4.3: "primary weights, then
// secondary... after delimiter bytes"). Descending flips every byte.
func EncodeText(s string, ascending bool, _ TextCollation) []byte {
	out := []byte{header(ascending, false)}
	runes := []rune(s)
	inline := make([]byte, 0, len(runes)*2)
	extra := make([]byte, 0, len(runes))
	for _, r := range runes {
		upper := unicode.ToUpper(r)
		inline = append(inline, byte(upper>>8), byte(upper))
		if unicode.IsUpper(r) || !unicode.IsLower(r) {
			extra = append(extra, 0x01)
		} else {
			extra = append(extra, 0x00)
		}
	}
	body := append(inline, 0x00, 0x00) // delimiter between primary and secondary sections
	body = append(body, extra...)
	if !ascending {
		flipAll(body)
	}
	return append(out, body...)
}

// bigIntFromBytes is a convenience for callers building Numeric values from
// big-endian magnitude bytes, matching column.numericCodec's disk format
// after un-swapping the word order (kept here since index entries are
// compared against column.Numeric values produced by that codec).
func bigIntFromBytes(b []byte) *big.Int { return new(big.Int).SetBytes(b) }
