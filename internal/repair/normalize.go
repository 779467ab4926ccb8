package repair

// normalize.go decodes repaired bytes as UTF-8 and collapses line endings.
//
// Decoding never fails. Invalid input is replaced with U+FFFD once per
// maximal subpart, the rule of the WHATWG Encoding Standard: a truncated
// multi-byte sequence becomes a single replacement, and the byte that broke
// it is decoded afresh.

import (
	"strings"
	"unicode/utf8"
)

// LineEnding selects the line terminator written by RenderLineEndings.
type LineEnding string

const (
	LineEndingLF   LineEnding = "lf"
	LineEndingCRLF LineEnding = "crlf"
)

// ParseLineEnding maps a config value ("lf", "crlf", case-insensitive) to a
// LineEnding. Empty input yields LF.
func ParseLineEnding(s string) (LineEnding, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lf", "\\n", "unix":
		return LineEndingLF, true
	case "crlf", "\\r\\n", "windows":
		return LineEndingCRLF, true
	default:
		return "", false
	}
}

// Decode interprets b as UTF-8, substituting one U+FFFD for each maximal
// invalid subpart.
func Decode(b []byte) string {
	// Fast path: most CSV input is already valid
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b) + len(b)/2)

	for read := 0; read < len(b); {
		r, size := utf8.DecodeRune(b[read:])
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			read += invalidSubpart(b[read:])
			continue
		}
		sb.Write(b[read : read+size])
		read += size
	}

	return sb.String()
}

// invalidSubpart returns the length of the maximal subpart at the start of b,
// which must not begin with a valid sequence. That is the lead byte plus
// every following byte that could still extend it; it is always at least 1.
func invalidSubpart(b []byte) int {
	lo, hi := byte(0x80), byte(0xBF)
	var n int
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		n = 2
	case c == 0xE0:
		n, lo = 3, 0xA0
	case c == 0xED:
		n, hi = 3, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		n = 3
	case c == 0xF0:
		n, lo = 4, 0x90
	case c == 0xF4:
		n, hi = 4, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		n = 4
	default:
		return 1
	}

	i := 1
	for ; i < n && i < len(b); i++ {
		if b[i] < lo || b[i] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}
	return i
}

// NormalizeLineEndings rewrites CRLF and lone CR to LF.
//
// CRLF is matched as a unit before lone CR; the other order would turn every
// CRLF into two newlines.
func NormalizeLineEndings(s string) string {
	if strings.IndexByte(s, '\r') < 0 {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Normalize decodes b as UTF-8 and collapses all line endings to LF.
//
// The returned Encoding is Detect(b), reported for diagnostics. Normalize does
// not branch on it.
func Normalize(b []byte) (string, Encoding) {
	return NormalizeLineEndings(Decode(b)), Detect(b)
}

// RenderLineEndings writes s with the requested terminator. s must already be
// LF-normalized; with LineEndingLF it is returned as is.
func RenderLineEndings(s string, le LineEnding) string {
	if le != LineEndingCRLF {
		return s
	}
	return strings.ReplaceAll(s, "\n", "\r\n")
}
