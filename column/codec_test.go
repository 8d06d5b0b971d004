package column

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntCodecRoundTrip(t *testing.T) {
	cases := []struct {
		typ DataType
		val int64
	}{
		{TypeByte, 200},
		{TypeInt, -1234},
		{TypeLong, 70000},
		{TypeBigInt, -9000000000},
	}
	for _, c := range cases {
		spec := &Spec{Type: c.typ}
		buf, err := Write(c.val, spec)
		require.NoError(t, err)
		require.Len(t, buf, c.typ.FixedSize())

		got, err := Read(buf, spec)
		require.NoError(t, err)
		gotInt, ok := toInt64(got)
		require.True(t, ok)
		assert.Equal(t, c.val, gotInt)
	}
}

func TestIntCodecOverflow(t *testing.T) {
	spec := &Spec{Type: TypeInt}
	_, err := Write(int64(70000), spec)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestFloatCodecRoundTrip(t *testing.T) {
	spec := &Spec{Type: TypeDouble}
	buf, err := Write(3.14159, spec)
	require.NoError(t, err)
	got, err := Read(buf, spec)
	require.NoError(t, err)
	assert.InDelta(t, 3.14159, got.(float64), 1e-12)
}

func TestMoneyCodecRoundTrip(t *testing.T) {
	spec := &Spec{Type: TypeMoney}
	m := MoneyFromFloat64(19.99)
	buf, err := Write(m, spec)
	require.NoError(t, err)
	got, err := Read(buf, spec)
	require.NoError(t, err)
	assert.Equal(t, m, got.(Money))
	assert.Equal(t, "19.9900", got.(Money).String())
}

func TestNumericCodecRoundTrip(t *testing.T) {
	spec := &Spec{Type: TypeNumeric, Precision: 28, Scale: 4}
	n, err := NumericFromString("-123.4500", 4)
	require.NoError(t, err)

	buf, err := Write(n, spec)
	require.NoError(t, err)
	require.Len(t, buf, 17)

	got, err := Read(buf, spec)
	require.NoError(t, err)
	gotNum := got.(Numeric)
	assert.Equal(t, "-123.4500", gotNum.String())
}

func TestNumericCodecPrecisionOverflow(t *testing.T) {
	spec := &Spec{Type: TypeNumeric, Precision: 2, Scale: 0}
	n, err := NumericFromString("999", 0)
	require.NoError(t, err)
	_, err = Write(n, spec)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestGUIDCodecRoundTrip(t *testing.T) {
	spec := &Spec{Type: TypeGUID}
	u := NewGUID()
	buf, err := Write(u, spec)
	require.NoError(t, err)
	require.Len(t, buf, 16)

	got, err := Read(buf, spec)
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestGUIDTextRoundTrip(t *testing.T) {
	u := NewGUID()
	text := GUIDText(u)
	parsed, err := ParseGUIDText(text)
	require.NoError(t, err)
	assert.Equal(t, u, parsed)
}

func TestDateTimeRoundTrip(t *testing.T) {
	spec := &Spec{Type: TypeShortDateTime}
	dv := DateValueFromTime(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC))
	buf, err := Write(dv, spec)
	require.NoError(t, err)
	got, err := Read(buf, spec)
	require.NoError(t, err)
	assert.Equal(t, dv.Raw, got.(DateValue).Raw)
}

func TestTextCompressedRoundTrip(t *testing.T) {
	spec := &Spec{Type: TypeText, TextCompressed: true}
	buf, err := Write("abc", spec)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFE, 'a', 'b', 'c'}, buf)

	got, err := Read(buf, spec)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestTextUncompressedFallback(t *testing.T) {
	spec := &Spec{Type: TypeText, TextCompressed: true}
	buf, err := Write("aαb", spec)
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 0x00, 0xB1, 0x03, 'b', 0x00}, buf)

	got, err := Read(buf, spec)
	require.NoError(t, err)
	assert.Equal(t, "aαb", got)
}

func TestTextShortStringNotCompressed(t *testing.T) {
	spec := &Spec{Type: TypeText, TextCompressed: true}
	buf, err := Write("ab", spec)
	require.NoError(t, err)
	assert.NotEqual(t, byte(0xFF), buf[0])
}

func TestBinaryCodecRoundTrip(t *testing.T) {
	spec := &Spec{Type: TypeBinary}
	data := []byte{0x01, 0x02, 0x03}
	buf, err := Write(data, spec)
	require.NoError(t, err)
	got, err := Read(buf, spec)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
