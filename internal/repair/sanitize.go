package repair

import (
	"bytes"
	"strings"
)

// SanitizePolicy controls which control characters survive Sanitize.
//
// The zero value is the default policy: keep tab and newline, drop every
// other C0 control and DEL, carriage return included.
type SanitizePolicy struct {
	// KeepCR retains '\r'. Only useful when sanitizing text that was never
	// line-normalized; the pipeline never needs it.
	KeepCR bool
}

// Sanitize applies the default SanitizePolicy.
func Sanitize(s string) string {
	return SanitizePolicy{}.Sanitize(s)
}

// Sanitize filters s scalar by scalar. Scalars >= 0x80 always pass, so
// decoded multi-byte text is never split or dropped.
func (p SanitizePolicy) Sanitize(s string) string {
	// Find the first character to drop; clean input is returned without copying.
	first := -1
	for i, r := range s {
		if !p.keep(r) {
			first = i
			break
		}
	}
	if first < 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	sb.WriteString(s[:first])
	for _, r := range s[first:] {
		if p.keep(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Residual reports whether s still holds a carriage return that this policy
// would drop. A true result on text that went through NormalizeLineEndings
// means the stages were invoked out of order.
func (p SanitizePolicy) Residual(s string) bool {
	return !p.KeepCR && strings.IndexByte(s, '\r') >= 0
}

func (p SanitizePolicy) keep(r rune) bool {
	switch {
	case r == '\n', r == '\t':
		return true
	case r == '\r':
		return p.KeepCR
	case r < 0x20, r == 0x7F:
		return false
	default:
		return true
	}
}

// RemoveNulls returns a copy of b without any 0x00 bytes. b is not modified.
func RemoveNulls(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for {
		i := bytes.IndexByte(b, 0x00)
		if i < 0 {
			return append(out, b...)
		}
		out = append(out, b[:i]...)
		b = b[i+1:]
	}
}
