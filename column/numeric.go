package column

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/jetdb/jetdb/bytecodec"
)

// Numeric is a fixed-point decimal value: Unscaled * 10^-Scale. Values are
// kept as an arbitrary-precision magnitude (via math/big) because the wire
// format carries up to 16 magnitude bytes (spec §4.1).
type Numeric struct {
	Negative bool
	Unscaled *big.Int // non-negative magnitude
	Scale    int
}

func (n Numeric) String() string {
	if n.Unscaled == nil {
		return "0"
	}
	s := n.Unscaled.String()
	neg := ""
	if n.Negative && s != "0" {
		neg = "-"
	}
	if n.Scale <= 0 {
		return neg + s
	}
	for len(s) <= n.Scale {
		s = "0" + s
	}
	whole := s[:len(s)-n.Scale]
	frac := s[len(s)-n.Scale:]
	return neg + whole + "." + frac
}

// NumericFromString parses a decimal literal like "-1.23" into a Numeric
// with the given scale, rounding is not performed: the literal's fractional
// digit count must not exceed scale.
func NumericFromString(s string, scale int) (Numeric, error) {
	neg := false
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if len(frac) > scale {
		return Numeric{}, fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidValue, s, scale)
	}
	if hasFrac {
		frac = frac + strings.Repeat("0", scale-len(frac))
	} else {
		frac = strings.Repeat("0", scale)
	}
	digits := whole + frac
	if digits == "" {
		digits = "0"
	}
	mag, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Numeric{}, fmt.Errorf("%w: %q is not numeric", ErrInvalidValue, s)
	}
	return Numeric{Negative: neg && mag.Sign() != 0, Unscaled: mag, Scale: scale}, nil
}

type numericCodec struct{}

// The index key encoder's numeric sort-key variants (index.NumericLegacy,
// index.NumericCurrent, §4.3) have no effect on the row-level wire encoding
// in this file.

func (numericCodec) Read(data []byte, spec *Spec) (any, error) {
	if len(data) != 17 {
		return nil, ErrWrongSize
	}
	negative := data[0] == 0x80
	magBE := append([]byte(nil), data[1:17]...)
	bytecodec.ReverseWordsInPlace(magBE, 4)
	mag := new(big.Int).SetBytes(magBE)
	return Numeric{Negative: negative, Unscaled: mag, Scale: spec.Scale}, nil
}

func (numericCodec) Write(value any, spec *Spec) ([]byte, error) {
	var num Numeric
	switch v := value.(type) {
	case Numeric:
		num = v
	case string:
		parsed, err := NumericFromString(v, spec.Scale)
		if err != nil {
			return nil, err
		}
		num = parsed
	default:
		if f, ok := toFloat64(value); ok {
			parsed, err := NumericFromString(fmt.Sprintf("%.*f", spec.Scale, f), spec.Scale)
			if err != nil {
				return nil, err
			}
			num = parsed
		} else {
			return nil, fmt.Errorf("%w: %v is not a valid Numeric", ErrInvalidValue, value)
		}
	}
	if num.Unscaled == nil {
		num.Unscaled = big.NewInt(0)
	}
	maxDigits := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(spec.Precision)), nil)
	if num.Unscaled.CmpAbs(maxDigits) >= 0 {
		return nil, fmt.Errorf("%w: %s exceeds column precision %d", ErrInvalidValue, num.String(), spec.Precision)
	}
	magBE := num.Unscaled.Bytes()
	if len(magBE) > 16 {
		return nil, fmt.Errorf("%w: magnitude too large for Numeric", ErrInvalidValue)
	}
	padded := make([]byte, 16)
	copy(padded[16-len(magBE):], magBE)
	bytecodec.ReverseWordsInPlace(padded, 4)

	buf := make([]byte, 17)
	if num.Negative && num.Unscaled.Sign() != 0 {
		buf[0] = 0x80
	}
	copy(buf[1:], padded)
	return buf, nil
}
