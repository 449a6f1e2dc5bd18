package criterion

import (
	"strings"
	"unicode"
)

// Normalize returns the canonical form of raw for type t.
// The extractor and the graph builder both go through this function so that
// a query value and a record field compare equal.
func Normalize(t Type, raw string) string {
	switch t {
	case Phone:
		return NormalizePhone(raw)
	case Email:
		return strings.ToLower(strings.TrimSpace(raw))
	case GovernmentID, Account:
		return alnumUpper(raw)
	default:
		return collapseSpaces(strings.ToLower(raw))
	}
}

// NormalizePhone keeps the last ten digits, dropping country code and trunk prefix.
func NormalizePhone(raw string) string {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return string(digits)
}

func alnumUpper(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
