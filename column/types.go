// Package column implements the bit-exact encode/decode of one field value
// of one Jet column type (spec §4.1, component C2). It is adapted from the
// teacher's column/ package, which dispatched MySQL/InnoDB wire formats
// (3-byte packed DATE, 5-byte packed DATETIME, XOR-biased signed ints) by
// column.Type through a small per-family Parser; here the families and
// their byte layouts are Jet's instead, but the factory/BaseParser shape is
// the same.
package column

import "errors"

// DataType enumerates the column value kinds the Jet format supports.
type DataType int

const (
	TypeBoolean DataType = iota
	TypeByte
	TypeInt           // i16
	TypeLong          // i32
	TypeBigInt        // i64
	TypeFloat         // f32
	TypeDouble        // f64
	TypeMoney         // fixed-scale-4 i64
	TypeNumeric       // sign byte + 16-byte magnitude, configurable scale
	TypeShortDateTime // f64 days-since-1899-12-30
	TypeGUID          // 16-byte mixed-endian GUID
	TypeText          // UTF-16LE, optionally unicode-compressed
	TypeMemo          // same wire encoding as Text, long-value backed
	TypeComplexFK     // i32 referencing the complex-type side table
	TypeBinary        // raw bytes
)

func (t DataType) String() string {
	switch t {
	case TypeBoolean:
		return "Boolean"
	case TypeByte:
		return "Byte"
	case TypeInt:
		return "Int"
	case TypeLong:
		return "Long"
	case TypeBigInt:
		return "BigInt"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	case TypeMoney:
		return "Money"
	case TypeNumeric:
		return "Numeric"
	case TypeShortDateTime:
		return "ShortDateTime"
	case TypeGUID:
		return "GUID"
	case TypeText:
		return "Text"
	case TypeMemo:
		return "Memo"
	case TypeComplexFK:
		return "ComplexFK"
	case TypeBinary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// FixedSize returns the on-disk size in bytes of a fixed-width type, or 0
// for types that are variable-length or null-mask-only (Boolean).
func (t DataType) FixedSize() int {
	switch t {
	case TypeByte:
		return 1
	case TypeInt:
		return 2
	case TypeLong, TypeFloat:
		return 4
	case TypeBigInt, TypeDouble, TypeMoney, TypeShortDateTime:
		return 8
	case TypeNumeric:
		return 17
	case TypeGUID:
		return 16
	case TypeComplexFK:
		return 4
	default:
		return 0
	}
}

// IsVariableLength reports whether values of t are stored in a row's
// variable-column region rather than its fixed-column region.
func (t DataType) IsVariableLength() bool {
	switch t {
	case TypeText, TypeMemo, TypeBinary:
		return true
	default:
		return false
	}
}

// IsNullMaskOnly reports whether t stores its entire value as a single bit
// in the row null mask (only Boolean, per spec §4.1).
func (t DataType) IsNullMaskOnly() bool { return t == TypeBoolean }

// Spec carries the per-column attributes the codec needs beyond the bare
// DataType: declared length for Binary, precision/scale for Numeric, and
// whether unicode compression should be attempted on write for Text/Memo.
type Spec struct {
	Type           DataType
	Length         int // declared byte length (Binary); ignored otherwise
	Precision      int // Numeric: total digits, 1-28
	Scale          int // Numeric: digits after the point, 0-28
	TextCompressed bool
}

var (
	ErrUnsupportedType = errors.New("column: unsupported type for this operation")
	ErrWrongSize       = errors.New("column: buffer is the wrong size")
	ErrInvalidValue    = errors.New("column: value cannot be coerced to column type")
)
