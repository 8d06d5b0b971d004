package column

import (
	"fmt"
	"math"

	"github.com/jetdb/jetdb/bytecodec"
)

// Money is the raw 64-bit signed integer backing a Money column, fixed
// scale 4 (spec §4.1): the decimal value equals Raw / 10000.
type Money int64

func (m Money) Float64() float64 { return float64(m) / 10000 }

func (m Money) String() string { return fmt.Sprintf("%d.%04d", int64(m)/10000, abs64(int64(m)%10000)) }

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// MoneyFromFloat64 rounds f to the nearest 1/10000 and wraps it as Money.
func MoneyFromFloat64(f float64) Money {
	return Money(math.Round(f * 10000))
}

type moneyCodec struct{}

func (moneyCodec) Read(data []byte, spec *Spec) (any, error) {
	if len(data) != 8 {
		return nil, ErrWrongSize
	}
	v, err := bytecodec.ReadInt64(data, 0)
	return Money(v), err
}

func (moneyCodec) Write(value any, spec *Spec) ([]byte, error) {
	var raw int64
	switch v := value.(type) {
	case Money:
		raw = int64(v)
	case int64:
		raw = v
	case float64:
		raw = int64(MoneyFromFloat64(v))
	case float32:
		raw = int64(MoneyFromFloat64(float64(v)))
	default:
		if i, ok := toInt64(value); ok {
			raw = i * 10000
		} else {
			return nil, fmt.Errorf("%w: %v is not a valid Money value", ErrInvalidValue, value)
		}
	}
	buf := make([]byte, 8)
	_ = bytecodec.WriteUint64(buf, 0, uint64(raw))
	return buf, nil
}
