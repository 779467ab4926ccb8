package repair

import (
	"golang.org/x/text/encoding/unicode"
)

// TranscodeUTF16 converts BOM-less UTF-16 bytes to UTF-8.
//
// enc picks the byte order: utf16_le and utf16_be are explicit, likely_utf16
// guesses from where the NULs sit (ASCII-range text has its zero byte second
// in little-endian, first in big-endian). Any other tag, or a decode failure,
// returns b unchanged; the UTF-8 path downstream still repairs it.
func TranscodeUTF16(b []byte, enc Encoding) []byte {
	var endianness unicode.Endianness
	switch enc {
	case EncodingUTF16LE:
		endianness = unicode.LittleEndian
	case EncodingUTF16BE:
		endianness = unicode.BigEndian
	case EncodingLikelyUTF16:
		endianness = guessEndianness(b)
	default:
		return b
	}

	// An odd trailing byte cannot be UTF-16; leave it for U+FFFD substitution
	// rather than failing the whole decode.
	body, tail := b, []byte(nil)
	if len(b)%2 == 1 {
		body, tail = b[:len(b)-1], b[len(b)-1:]
	}

	decoded, err := unicode.UTF16(endianness, unicode.IgnoreBOM).NewDecoder().Bytes(body)
	if err != nil {
		return b
	}
	return append(decoded, tail...)
}

// guessEndianness compares NUL counts at even and odd offsets.
func guessEndianness(b []byte) unicode.Endianness {
	even, odd := 0, 0
	for i, c := range b {
		if c != 0x00 {
			continue
		}
		if i%2 == 0 {
			even++
		} else {
			odd++
		}
	}
	if even > odd {
		return unicode.BigEndian
	}
	return unicode.LittleEndian
}
