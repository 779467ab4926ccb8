package repair

// formulaTriggers are the leading characters that make spreadsheet programs
// evaluate a cell as a formula.
const formulaTriggers = "=+-@"

// InjectionGuard flags field values that a spreadsheet would run as formulas.
// It never modifies the field; quoting or prefixing is up to the caller.
type InjectionGuard struct {
	// SkipLeadingSpace ignores leading spaces and tabs before checking the
	// first character, so " =1+1" is flagged as well.
	SkipLeadingSpace bool
}

// DefaultInjectionGuard skips leading whitespace before the check.
var DefaultInjectionGuard = InjectionGuard{SkipLeadingSpace: true}

// IsRisky reports whether field starts with a formula trigger, using
// DefaultInjectionGuard.
func IsRisky(field string) bool {
	return DefaultInjectionGuard.IsRisky(field)
}

// IsRisky reports whether field starts with '=', '+', '-' or '@'.
func (g InjectionGuard) IsRisky(field string) bool {
	i := 0
	if g.SkipLeadingSpace {
		for i < len(field) && (field[i] == ' ' || field[i] == '\t') {
			i++
		}
	}
	if i >= len(field) {
		return false
	}
	for j := 0; j < len(formulaTriggers); j++ {
		if field[i] == formulaTriggers[j] {
			return true
		}
	}
	return false
}
