package repair

import "bytes"

// Encoding is the descriptive tag produced by Detect.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf8"
	EncodingUTF8BOM     Encoding = "utf8_with_bom"
	EncodingUTF16LE     Encoding = "utf16_le"
	EncodingUTF16BE     Encoding = "utf16_be"
	EncodingLikelyUTF16 Encoding = "likely_utf16"
	EncodingUnknown     Encoding = "unknown"
)

// String implements fmt.Stringer.
func (e Encoding) String() string {
	return string(e)
}

// IsUTF16 reports whether the tag names any UTF-16 variant, with or without BOM.
func (e Encoding) IsUTF16() bool {
	switch e {
	case EncodingUTF16LE, EncodingUTF16BE, EncodingLikelyUTF16:
		return true
	default:
		return false
	}
}

// bomPrefixes is shared by Detect and StripBOM so the two can never disagree
// about what counts as a byte-order mark. Order matters: longest first.
var bomPrefixes = []struct {
	marker   []byte
	encoding Encoding
}{
	{[]byte{0xEF, 0xBB, 0xBF}, EncodingUTF8BOM},
	{[]byte{0xFF, 0xFE}, EncodingUTF16LE},
	{[]byte{0xFE, 0xFF}, EncodingUTF16BE},
}

// bomPrefix returns the encoding and length of the BOM at the start of b,
// or ("", 0) if there is none.
func bomPrefix(b []byte) (Encoding, int) {
	for _, p := range bomPrefixes {
		if bytes.HasPrefix(b, p.marker) {
			return p.encoding, len(p.marker)
		}
	}
	return "", 0
}

// Detect classifies raw bytes into an Encoding tag. It never fails.
//
// A BOM wins outright. Without one, a NUL density above one in four bytes
// means UTF-16 text without a BOM. Otherwise the input is utf8 when every
// byte is printable ASCII, tab, LF, CR, a sparse NUL, or >= 0x80; anything
// else is unknown. Well-formedness of multi-byte sequences is not checked
// here; Decode substitutes U+FFFD for invalid sequences later.
func Detect(b []byte) Encoding {
	if enc, n := bomPrefix(b); n > 0 {
		return enc
	}

	if CountNulls(b) > len(b)/4 {
		return EncodingLikelyUTF16
	}

	for _, c := range b {
		if !plausibleTextByte(c) {
			return EncodingUnknown
		}
	}
	return EncodingUTF8
}

// plausibleTextByte reports whether c may appear in ASCII-compatible text.
// NUL is accepted because Detect only reaches this check once NUL density is
// below the UTF-16 threshold; stray NULs are noise the sanitizer removes.
func plausibleTextByte(c byte) bool {
	switch {
	case c >= 0x20 && c <= 0x7E:
		return true
	case c == '\t', c == '\n', c == '\r', c == 0x00:
		return true
	case c >= 0x80:
		return true
	default:
		return false
	}
}

// CountNulls returns the number of 0x00 bytes in b.
func CountNulls(b []byte) int {
	return bytes.Count(b, []byte{0x00})
}
