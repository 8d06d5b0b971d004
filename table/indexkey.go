package table

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jetdb/jetdb/column"
	"github.com/jetdb/jetdb/index"
	"github.com/jetdb/jetdb/schema"
)

// EncodeColumnKey produces one column's contribution to a composite index
// key (spec §4.3, component C5): it dispatches on the column's DataType to
// the matching index.Encode* sortable-key function. value is nil for a SQL
// null, else whatever column.Read would have returned for this column's
// type (int64-family, float64-family, string, []byte, bool, uuid.UUID,
// column.Numeric, column.Money).
func EncodeColumnKey(c *schema.Column, value any, ascending bool) ([]byte, error) {
	if value == nil {
		return index.EncodeNull(ascending), nil
	}
	switch c.Spec.Type {
	case column.TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("table: column %q: %v is not a bool", c.Name, value)
		}
		return index.EncodeBoolean(b, ascending), nil

	case column.TypeByte, column.TypeInt, column.TypeLong, column.TypeBigInt, column.TypeComplexFK:
		v, ok := toInt64(value)
		if !ok {
			return nil, fmt.Errorf("table: column %q: %v is not an integer", c.Name, value)
		}
		width := c.Spec.Type.FixedSize()
		if c.Spec.Type == column.TypeComplexFK {
			width = 4
		}
		return index.EncodeInt(v, width, ascending), nil

	case column.TypeFloat:
		f, ok := toFloat64(value)
		if !ok {
			return nil, fmt.Errorf("table: column %q: %v is not a float", c.Name, value)
		}
		return index.EncodeFloat(f, true, ascending), nil

	case column.TypeDouble, column.TypeShortDateTime:
		f, ok := toFloat64(value)
		if !ok {
			return nil, fmt.Errorf("table: column %q: %v is not a float", c.Name, value)
		}
		return index.EncodeFloat(f, false, ascending), nil

	case column.TypeMoney:
		m, ok := value.(column.Money)
		if !ok {
			n, intOk := toInt64(value)
			if !intOk {
				return nil, fmt.Errorf("table: column %q: %v is not Money", c.Name, value)
			}
			m = column.Money(n)
		}
		return index.EncodeMoney(m, ascending), nil

	case column.TypeNumeric:
		n, ok := value.(column.Numeric)
		if !ok {
			return nil, fmt.Errorf("table: column %q: %v is not Numeric", c.Name, value)
		}
		return index.EncodeNumeric(n, ascending, index.NumericCurrent), nil

	case column.TypeGUID:
		var u uuid.UUID
		switch v := value.(type) {
		case uuid.UUID:
			u = v
		case string:
			parsed, err := column.ParseGUIDText(v)
			if err != nil {
				return nil, fmt.Errorf("table: column %q: %w", c.Name, err)
			}
			u = parsed
		default:
			return nil, fmt.Errorf("table: column %q: %v is not a GUID", c.Name, value)
		}
		disk, err := column.Write(u, &c.Spec)
		if err != nil {
			return nil, err
		}
		var raw [16]byte
		copy(raw[:], disk)
		return index.EncodeGUID(raw, ascending), nil

	case column.TypeText, column.TypeMemo:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("table: column %q: %v is not text", c.Name, value)
		}
		return index.EncodeText(s, ascending, index.CollationGeneral), nil

	case column.TypeBinary:
		b, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("table: column %q: %v is not binary", c.Name, value)
		}
		return index.EncodeBinary(b, ascending), nil

	default:
		return nil, fmt.Errorf("table: column %q: unsupported index key type %s", c.Name, c.Spec.Type)
	}
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

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return toInt64FitsFloat(value)
	}
}

func toInt64FitsFloat(value any) (float64, bool) {
	n, ok := toInt64(value)
	if !ok {
		return 0, false
	}
	return float64(n), true
}

// EncodeCompositeKey concatenates EncodeColumnKey's output for every column
// of an index, in index-column order, building one sortable B-tree key for
// a multi-column index.
func EncodeCompositeKey(cols []*schema.Column, ascending []bool, values map[string]any) ([]byte, error) {
	var out []byte
	for i, c := range cols {
		part, err := EncodeColumnKey(c, values[c.Name], ascending[i])
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}
