package repair

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected Encoding
	}{
		{
			name:     "empty input",
			input:    []byte{},
			expected: EncodingUTF8,
		},
		{
			name:     "nil input",
			input:    nil,
			expected: EncodingUTF8,
		},
		{
			name:     "plain ASCII",
			input:    []byte("id,name\n1,test\n"),
			expected: EncodingUTF8,
		},
		{
			name:     "UTF-8 BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,name")...),
			expected: EncodingUTF8BOM,
		},
		{
			name:     "only UTF-8 BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: EncodingUTF8BOM,
		},
		{
			name:     "UTF-16 LE BOM",
			input:    []byte{0xFF, 0xFE, 'a', 0x00},
			expected: EncodingUTF16LE,
		},
		{
			name:     "UTF-16 BE BOM",
			input:    []byte{0xFE, 0xFF, 0x00, 'a'},
			expected: EncodingUTF16BE,
		},
		{
			name:     "UTF-16 LE without BOM",
			input:    []byte{'i', 0x00, 'd', 0x00, ',', 0x00, 'n', 0x00},
			expected: EncodingLikelyUTF16,
		},
		{
			name:     "CRLF and tabs",
			input:    []byte("a\tb\r\nc\rd"),
			expected: EncodingUTF8,
		},
		{
			name:     "multi-byte UTF-8",
			input:    []byte("Café,漢字,Привет"),
			expected: EncodingUTF8,
		},
		{
			name:     "invalid high bytes still utf8",
			input:    []byte{'a', 0xC3, 0x28, 'b'},
			expected: EncodingUTF8,
		},
		{
			name:     "sparse NUL tolerated",
			input:    []byte("id,name\r\n1,test\x00\r\n"),
			expected: EncodingUTF8,
		},
		{
			name:     "bell character",
			input:    []byte("a\x07b,c,d,e"),
			expected: EncodingUnknown,
		},
		{
			name:     "DEL character",
			input:    []byte("abc\x7fdef"),
			expected: EncodingUnknown,
		},
		{
			name:     "partial UTF-8 BOM",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: EncodingUTF8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.input); got != tt.expected {
				t.Errorf("Detect(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDetect_NulThreshold(t *testing.T) {
	// len 8: threshold is 8/4 = 2, so two NULs are not enough and three are
	two := []byte{'a', 'b', 'c', 'd', 'e', 'f', 0x00, 0x00}
	if got := Detect(two); got != EncodingUTF8 {
		t.Errorf("two NULs in 8 bytes: got %q, want %q", got, EncodingUTF8)
	}

	three := []byte{'a', 'b', 'c', 'd', 'e', 0x00, 0x00, 0x00}
	if got := Detect(three); got != EncodingLikelyUTF16 {
		t.Errorf("three NULs in 8 bytes: got %q, want %q", got, EncodingLikelyUTF16)
	}
}

func TestDetect_BOMBeatsNulDensity(t *testing.T) {
	input := []byte{0xFF, 0xFE, 0x00, 0x00, 0x00, 0x00}
	if got := Detect(input); got != EncodingUTF16LE {
		t.Errorf("got %q, want %q", got, EncodingUTF16LE)
	}
}

func TestEncoding_IsUTF16(t *testing.T) {
	for _, enc := range []Encoding{EncodingUTF16LE, EncodingUTF16BE, EncodingLikelyUTF16} {
		if !enc.IsUTF16() {
			t.Errorf("%q.IsUTF16() = false, want true", enc)
		}
	}
	for _, enc := range []Encoding{EncodingUTF8, EncodingUTF8BOM, EncodingUnknown} {
		if enc.IsUTF16() {
			t.Errorf("%q.IsUTF16() = true, want false", enc)
		}
	}
}

func TestCountNulls(t *testing.T) {
	if got := CountNulls([]byte("a\x00b\x00\x00")); got != 3 {
		t.Errorf("CountNulls = %d, want 3", got)
	}
	if got := CountNulls(nil); got != 0 {
		t.Errorf("CountNulls(nil) = %d, want 0", got)
	}
}
