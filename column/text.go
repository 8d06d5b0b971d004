package column

import (
	"fmt"

	"github.com/jetdb/jetdb/bytecodec"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// compressedHeader marks a text value's on-disk bytes as using the
// unicode-compression run scheme (spec §4.1, §8 scenario (d)).
var compressedHeader = []byte{0xFF, 0xFE}

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func encodeUTF16LE(s string) ([]byte, error) {
	out, _, err := transform.Bytes(utf16LE.NewEncoder(), []byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: utf16le encode: %v", ErrInvalidValue, err)
	}
	return out, nil
}

func decodeUTF16LE(b []byte) (string, error) {
	out, _, err := transform.Bytes(utf16LE.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("%w: utf16le decode: %v", ErrInvalidValue, err)
	}
	return string(out), nil
}

// canCompress reports whether every rune of s packs into a single
// compressed byte (0x01-0xFF) and the string is long enough that
// compression is worth its 2-byte header (spec §4.1: "compression is
// attempted only if all code points fall in 0x01-0xFF and the total length
// exceeds 2").
func canCompress(runes []rune) bool {
	if len(runes) <= 2 {
		return false
	}
	for _, r := range runes {
		if r < 0x01 || r > 0xFF {
			return false
		}
	}
	return true
}

// encodeCompressed writes the whole string as one compressed run: the
// 0xFF 0xFE header followed by one low byte per code point. Mode-switch
// markers (0x00) are never emitted here because canCompress already
// guaranteed every rune is representable in the compressed form.
func encodeCompressed(runes []rune) []byte {
	out := make([]byte, 2, 2+len(runes))
	copy(out, compressedHeader)
	for _, r := range runes {
		out = append(out, byte(r))
	}
	return out
}

// decodeCompressed walks the mode-switching run format: starts in
// compressed mode (one byte per code point), flips mode on every 0x00
// marker byte, and in uncompressed mode reads 2-byte LE code units —
// general enough to read values this library never itself writes a
// multi-run form of, but that a cooperating writer may have produced.
func decodeCompressed(data []byte) (string, error) {
	pos := 2
	compressed := true
	var runes []rune
	for pos < len(data) {
		if data[pos] == 0x00 {
			compressed = !compressed
			pos++
			continue
		}
		if compressed {
			runes = append(runes, rune(data[pos]))
			pos++
			continue
		}
		cp, err := bytecodec.ReadUint16(data, pos)
		if err != nil {
			return "", fmt.Errorf("%w: truncated uncompressed run", ErrInvalidValue)
		}
		runes = append(runes, rune(cp))
		pos += 2
	}
	return string(runes), nil
}

type textCodec struct{}

func (textCodec) Read(data []byte, spec *Spec) (any, error) {
	if len(data) >= 2 && data[0] == compressedHeader[0] && data[1] == compressedHeader[1] {
		return decodeCompressed(data)
	}
	return decodeUTF16LE(data)
}

func (textCodec) Write(value any, spec *Spec) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not text", ErrInvalidValue, value)
	}
	runes := []rune(s)
	if spec.TextCompressed && canCompress(runes) {
		return encodeCompressed(runes), nil
	}
	return encodeUTF16LE(s)
}
