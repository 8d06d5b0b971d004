// Package bytecodec provides the low-level byte primitives the rest of the
// engine builds on: little-endian fixed-width read/write (the Jet file
// format is LE throughout, unlike the InnoDB big-endian layout this package
// was adapted from), hex formatting helpers, and a growable byte stream
// builder.
package bytecodec

import (
	"encoding/binary"
	"errors"
)

// ErrShortRead is returned whenever a fixed-width read runs past the end of
// the supplied buffer.
var ErrShortRead = errors.New("bytecodec: short read")

func ReadUint16(b []byte, off int) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint16(b[off : off+2]), nil
}

func ReadUint32(b []byte, off int) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint32(b[off : off+4]), nil
}

func ReadUint64(b []byte, off int) (uint64, error) {
	if off < 0 || off+8 > len(b) {
		return 0, ErrShortRead
	}
	return binary.LittleEndian.Uint64(b[off : off+8]), nil
}

func ReadInt16(b []byte, off int) (int16, error) {
	v, err := ReadUint16(b, off)
	return int16(v), err
}

func ReadInt32(b []byte, off int) (int32, error) {
	v, err := ReadUint32(b, off)
	return int32(v), err
}

func ReadInt64(b []byte, off int) (int64, error) {
	v, err := ReadUint64(b, off)
	return int64(v), err
}

func WriteUint16(b []byte, off int, v uint16) error {
	if off < 0 || off+2 > len(b) {
		return ErrShortRead
	}
	binary.LittleEndian.PutUint16(b[off:off+2], v)
	return nil
}

func WriteUint32(b []byte, off int, v uint32) error {
	if off < 0 || off+4 > len(b) {
		return ErrShortRead
	}
	binary.LittleEndian.PutUint32(b[off:off+4], v)
	return nil
}

func WriteUint64(b []byte, off int, v uint64) error {
	if off < 0 || off+8 > len(b) {
		return ErrShortRead
	}
	binary.LittleEndian.PutUint64(b[off:off+8], v)
	return nil
}

// SwapBytes reverses a byte slice in place and returns it.
func SwapBytes(b []byte) []byte {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// ReverseWordsInPlace reverses the bytes within each wordSize-byte word of
// b, leaving the word order unchanged, and returns b. It is its own
// inverse. The Numeric codec uses it (wordSize 4) to convert between a
// big-endian 16-byte magnitude and its on-disk form: four 4-byte words,
// most-significant word first, each word stored little-endian internally.
func ReverseWordsInPlace(b []byte, wordSize int) []byte {
	for off := 0; off+wordSize <= len(b); off += wordSize {
		for i, j := off, off+wordSize-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
	}
	return b
}
