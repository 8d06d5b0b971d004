package bytecodec

import (
	"encoding/hex"
	"fmt"
)

// ToHexString renders b as an uppercase, space-separated hex dump; handy in
// error messages and the cmd/jetdb inspector, in the teacher's "%x"-heavy
// debug-output style.
func ToHexString(b []byte) string {
	out := make([]byte, 0, len(b)*3)
	for i, c := range b {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, []byte(fmt.Sprintf("%02X", c))...)
	}
	return string(out)
}

// FromHexString parses a plain (no separators) hex string back to bytes.
func FromHexString(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
