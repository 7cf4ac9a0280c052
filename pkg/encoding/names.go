// Package encoding decodes mesh names written by legacy tools.
//
// Older asset pipelines stored names as EUC-KR in fixed-width, NUL-padded
// fields. Names that are already valid UTF-8 are kept as they are; anything
// else is decoded as EUC-KR.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// DecodeName converts a raw name field to a UTF-8 string.
func DecodeName(data []byte) string {
	data = TrimNullBytes(data)
	if utf8.Valid(data) {
		return string(data)
	}
	return EUCKRToUTF8(data)
}

// EUCKRToUTF8 converts EUC-KR encoded bytes to UTF-8. Bytes that do not
// decode are replaced with U+FFFD.
func EUCKRToUTF8(data []byte) string {
	result, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return strings.ToValidUTF8(string(result), "�")
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}
