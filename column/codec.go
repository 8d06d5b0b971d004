package column

import (
	"fmt"
	"math"

	"github.com/jetdb/jetdb/bytecodec"
)

// Codec is the per-type-family parser interface, matching the teacher's
// column.Parser shape: Read decodes a value from its on-disk bytes, Write
// produces the on-disk bytes for a value.
type Codec interface {
	Read(data []byte, spec *Spec) (any, error)
	Write(value any, spec *Spec) ([]byte, error)
}

// Read decodes one field's on-disk bytes for spec.Type. data must be
// exactly the value's width for fixed types; for variable types it must be
// exactly the value's stored length (the row codec is responsible for
// slicing out the right span before calling in).
func Read(data []byte, spec *Spec) (any, error) {
	c := codecFor(spec.Type)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, spec.Type)
	}
	return c.Read(data, spec)
}

// Write encodes value per spec.Type and returns its on-disk bytes.
func Write(value any, spec *Spec) ([]byte, error) {
	c := codecFor(spec.Type)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, spec.Type)
	}
	return c.Write(value, spec)
}

func codecFor(t DataType) Codec {
	switch t {
	case TypeBoolean:
		return boolCodec{}
	case TypeByte, TypeInt, TypeLong, TypeBigInt:
		return intCodec{}
	case TypeFloat, TypeDouble:
		return floatCodec{}
	case TypeMoney:
		return moneyCodec{}
	case TypeNumeric:
		return numericCodec{}
	case TypeShortDateTime:
		return dateCodec{}
	case TypeGUID:
		return guidCodec{}
	case TypeText, TypeMemo:
		return textCodec{}
	case TypeComplexFK:
		return complexFKCodec{}
	case TypeBinary:
		return binaryCodec{}
	default:
		return nil
	}
}

// --- Boolean ---
//
// Boolean has zero on-disk width: its value lives entirely in the row-level
// null mask (bit set = not-null = true, per spec §4.1). Read/Write here
// exist only so the Codec dispatch table stays uniform; the row codec never
// actually calls them for a Boolean column.

type boolCodec struct{}

func (boolCodec) Read(data []byte, spec *Spec) (any, error) { return nil, nil }
func (boolCodec) Write(value any, spec *Spec) ([]byte, error) { return nil, nil }

// --- fixed-width integers: Byte/Int/Long/BigInt, all plain LE two's complement ---

type intCodec struct{}

func (intCodec) Read(data []byte, spec *Spec) (any, error) {
	n := spec.Type.FixedSize()
	if len(data) != n {
		return nil, ErrWrongSize
	}
	switch spec.Type {
	case TypeByte:
		return data[0], nil
	case TypeInt:
		v, err := bytecodec.ReadInt16(data, 0)
		return v, err
	case TypeLong:
		v, err := bytecodec.ReadInt32(data, 0)
		return v, err
	case TypeBigInt:
		v, err := bytecodec.ReadInt64(data, 0)
		return v, err
	}
	return nil, ErrUnsupportedType
}

func (intCodec) Write(value any, spec *Spec) ([]byte, error) {
	n := spec.Type.FixedSize()
	buf := make([]byte, n)
	switch spec.Type {
	case TypeByte:
		v, ok := toInt64(value)
		if !ok || v < 0 || v > 0xFF {
			return nil, fmt.Errorf("%w: %v is not a valid Byte", ErrInvalidValue, value)
		}
		buf[0] = byte(v)
	case TypeInt:
		v, ok := toInt64(value)
		if !ok || v < math.MinInt16 || v > math.MaxInt16 {
			return nil, fmt.Errorf("%w: %v overflows Int", ErrInvalidValue, value)
		}
		_ = bytecodec.WriteUint16(buf, 0, uint16(int16(v)))
	case TypeLong:
		v, ok := toInt64(value)
		if !ok || v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %v overflows Long", ErrInvalidValue, value)
		}
		_ = bytecodec.WriteUint32(buf, 0, uint32(int32(v)))
	case TypeBigInt:
		v, ok := toInt64(value)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a valid BigInt", ErrInvalidValue, value)
		}
		_ = bytecodec.WriteUint64(buf, 0, uint64(v))
	}
	return buf, nil
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	default:
		return 0, false
	}
}

// --- Float/Double: LE IEEE-754 ---

type floatCodec struct{}

func (floatCodec) Read(data []byte, spec *Spec) (any, error) {
	if spec.Type == TypeFloat {
		if len(data) != 4 {
			return nil, ErrWrongSize
		}
		bits, err := bytecodec.ReadUint32(data, 0)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(bits), nil
	}
	if len(data) != 8 {
		return nil, ErrWrongSize
	}
	bits, err := bytecodec.ReadUint64(data, 0)
	if err != nil {
		return nil, err
	}
	return math.Float64frombits(bits), nil
}

func (floatCodec) Write(value any, spec *Spec) ([]byte, error) {
	f, ok := toFloat64(value)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not numeric", ErrInvalidValue, value)
	}
	if spec.Type == TypeFloat {
		buf := make([]byte, 4)
		_ = bytecodec.WriteUint32(buf, 0, math.Float32bits(float32(f)))
		return buf, nil
	}
	buf := make([]byte, 8)
	_ = bytecodec.WriteUint64(buf, 0, math.Float64bits(f))
	return buf, nil
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		if i, ok := toInt64(value); ok {
			return float64(i), true
		}
		return 0, false
	}
}

// --- Complex FK: plain i32 LE referencing a row in an external side table ---

type complexFKCodec struct{}

func (complexFKCodec) Read(data []byte, spec *Spec) (any, error) {
	if len(data) != 4 {
		return nil, ErrWrongSize
	}
	v, err := bytecodec.ReadInt32(data, 0)
	return v, err
}

func (complexFKCodec) Write(value any, spec *Spec) ([]byte, error) {
	v, ok := toInt64(value)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a valid complex FK id", ErrInvalidValue, value)
	}
	buf := make([]byte, 4)
	_ = bytecodec.WriteUint32(buf, 0, uint32(int32(v)))
	return buf, nil
}

// --- Binary: raw bytes, copied verbatim ---

type binaryCodec struct{}

func (binaryCodec) Read(data []byte, spec *Spec) (any, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (binaryCodec) Write(value any, spec *Spec) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%w: %v is not binary", ErrInvalidValue, value)
	}
}
