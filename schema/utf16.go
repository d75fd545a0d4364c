// utf16.go - UTF-16LE decoding for on-disk names and WKT strings
package schema

import (
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// DecodeUTF16 converts UTF-16LE bytes to a Go string. Odd trailing
// bytes are dropped.
func DecodeUTF16(b []byte) (string, error) {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	out, err := utf16le.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
