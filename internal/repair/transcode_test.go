package repair

import (
	"bytes"
	"testing"
)

func TestTranscodeUTF16(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		enc      Encoding
		expected string
	}{
		{
			name:     "little endian",
			input:    []byte{'i', 0, 'd', 0, '\n', 0},
			enc:      EncodingUTF16LE,
			expected: "id\n",
		},
		{
			name:     "big endian",
			input:    []byte{0, 'i', 0, 'd'},
			enc:      EncodingUTF16BE,
			expected: "id",
		},
		{
			name:     "guessed little endian",
			input:    []byte{'a', 0, 'b', 0},
			enc:      EncodingLikelyUTF16,
			expected: "ab",
		},
		{
			name:     "guessed big endian",
			input:    []byte{0, 'a', 0, 'b'},
			enc:      EncodingLikelyUTF16,
			expected: "ab",
		},
		{
			name:     "non-ASCII little endian",
			input:    []byte{0xE9, 0x00, 0x22, 0x6F},
			enc:      EncodingUTF16LE,
			expected: "é漢",
		},
		{
			name:     "odd trailing byte kept",
			input:    []byte{'a', 0, 'b'},
			enc:      EncodingUTF16LE,
			expected: "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranscodeUTF16(tt.input, tt.enc)
			if string(got) != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTranscodeUTF16_OtherEncodingsUntouched(t *testing.T) {
	input := []byte("plain")
	for _, enc := range []Encoding{EncodingUTF8, EncodingUTF8BOM, EncodingUnknown} {
		if got := TranscodeUTF16(input, enc); !bytes.Equal(got, input) {
			t.Errorf("%q: got %q, want input unchanged", enc, got)
		}
	}
}
