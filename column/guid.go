package column

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GUIDText renders u as the brace-delimited, uppercase form the file format
// uses in its text representation: "{xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx}".
func GUIDText(u uuid.UUID) string {
	return "{" + strings.ToUpper(u.String()) + "}"
}

// ParseGUIDText accepts either the braced form or a bare RFC 4122 string.
func ParseGUIDText(s string) (uuid.UUID, error) {
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a valid GUID", ErrInvalidValue, s)
	}
	return u, nil
}

// swapGUIDEndian converts a GUID between its textual RFC 4122 byte order
// (as produced by uuid.Parse) and the Jet on-disk mixed-endian layout: the
// first three text segments (4, 2, 2 bytes) are individually byte-reversed;
// the trailing 8 bytes are stored raw. The transform is its own inverse.
func swapGUIDEndian(b [16]byte) [16]byte {
	var out [16]byte
	out[0], out[1], out[2], out[3] = b[3], b[2], b[1], b[0]
	out[4], out[5] = b[5], b[4]
	out[6], out[7] = b[7], b[6]
	copy(out[8:], b[8:])
	return out
}

type guidCodec struct{}

func (guidCodec) Read(data []byte, spec *Spec) (any, error) {
	if len(data) != 16 {
		return nil, ErrWrongSize
	}
	var disk [16]byte
	copy(disk[:], data)
	return uuid.UUID(swapGUIDEndian(disk)), nil
}

func (guidCodec) Write(value any, spec *Spec) ([]byte, error) {
	var u uuid.UUID
	switch v := value.(type) {
	case uuid.UUID:
		u = v
	case string:
		parsed, err := ParseGUIDText(v)
		if err != nil {
			return nil, err
		}
		u = parsed
	case [16]byte:
		u = uuid.UUID(v)
	default:
		return nil, fmt.Errorf("%w: %v is not a valid GUID", ErrInvalidValue, value)
	}
	disk := swapGUIDEndian([16]byte(u))
	return disk[:], nil
}

// NewGUID generates a fresh random (v4) GUID, used by the GUID autonumber
// generator (spec §4.5).
func NewGUID() uuid.UUID {
	return uuid.New()
}
