package repair

// StripBOM removes exactly one leading byte-order mark: three bytes for
// UTF-8, two for UTF-16 LE or BE. Input without a BOM is returned unchanged.
//
// The result is a sub-slice of b and shares its backing array. Callers that
// keep the result past the lifetime of b must copy it.
func StripBOM(b []byte) []byte {
	_, n := bomPrefix(b)
	return b[n:]
}

// BOMLength returns how many bytes StripBOM would remove from b.
func BOMLength(b []byte) int {
	_, n := bomPrefix(b)
	return n
}
