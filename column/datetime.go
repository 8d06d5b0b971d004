package column

import (
	"math"
	"time"

	"github.com/jetdb/jetdb/bytecodec"
)

// epoch is the file format's day-zero: 30 Dec 1899.
var epoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// DateValue is a ShortDateTime column value. Raw holds the original 8-byte
// IEEE-754 bit pattern exactly as read from disk (or as computed on write),
// so that re-writing an unchanged value reproduces identical bits — the
// double-to-wall-clock conversion loses sub-millisecond precision, so the
// round trip must go through Raw, not through a reconstructed float (spec
// §4.1 "Round-trip rule").
type DateValue struct {
	Raw uint64
}

// Days is the raw value's integer-part-plus-fraction day count.
func (d DateValue) Days() float64 { return math.Float64frombits(d.Raw) }

// ToTime converts Days to a time.Time in loc, per the legacy encoding rule:
// the fractional part of Days is always the positive fraction-of-day, even
// when the integer (whole-days) part is negative (dates before the epoch).
func (d DateValue) ToTime(loc *time.Location) time.Time {
	days := d.Days()
	dayCount := math.Floor(days)
	frac := days - dayCount
	t := epoch.AddDate(0, 0, int(dayCount))
	t = t.Add(time.Duration(frac * 86400 * float64(time.Second)))
	return t.In(loc)
}

// DateValueFromTime computes the raw bit pattern for t, preserving the
// "always positive fraction" convention on write.
func DateValueFromTime(t time.Time) DateValue {
	utc := t.UTC()
	y, m, dd := utc.Date()
	dateOnly := time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
	dayCount := math.Floor(dateOnly.Sub(epoch).Hours() / 24)
	fracSecs := utc.Sub(dateOnly).Seconds()
	days := dayCount + fracSecs/86400
	return DateValue{Raw: math.Float64bits(days)}
}

// LocalFromRaw applies the "local date-time" open-mode policy (spec §4.1):
// convert the wall-clock reading in zone loc to a local time.Time, ignoring
// any timezone info already implied by the raw value (there is none — the
// format has no tz concept; the raw double is always a wall-clock reading).
func LocalFromRaw(d DateValue, loc *time.Location) time.Time {
	t := d.ToTime(time.UTC)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// ToUTC converts a local wall-clock reading to UTC in two passes: it first
// subtracts the offset of local's own zone (as local.Zone() reports it, DST
// included) to get an intermediate instant, then re-queries loc's offset
// (DST included) at that intermediate instant and subtracts that offset
// from local. No separate non-DST (standard-time) offset is looked up for
// the first pass.
func ToUTC(local time.Time, loc *time.Location) time.Time {
	_, rawOffset := local.Zone()
	intermediate := local.Add(-time.Duration(rawOffset) * time.Second)
	_, offset := intermediate.In(loc).Zone()
	return local.Add(-time.Duration(offset) * time.Second).UTC()
}

type dateCodec struct{}

func (dateCodec) Read(data []byte, spec *Spec) (any, error) {
	if len(data) != 8 {
		return nil, ErrWrongSize
	}
	bits, err := bytecodec.ReadUint64(data, 0)
	if err != nil {
		return nil, err
	}
	return DateValue{Raw: bits}, nil
}

func (dateCodec) Write(value any, spec *Spec) ([]byte, error) {
	var dv DateValue
	switch v := value.(type) {
	case DateValue:
		dv = v
	case time.Time:
		dv = DateValueFromTime(v)
	default:
		return nil, ErrInvalidValue
	}
	buf := make([]byte, 8)
	_ = bytecodec.WriteUint64(buf, 0, dv.Raw)
	return buf, nil
}
