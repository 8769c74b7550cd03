package document

import (
	"fmt"
	"strings"
)

// Canonicalize turns raw keystrokes into the wire form of a number for t.
// It is applied on every change so the stored value is always submittable.
//
// Driver's licenses keep their spaces, hyphens and slashes; every other type
// has separators stripped.
func Canonicalize(t Type, raw string) string {
	max := Lookup(t).MaxLength
	switch t {
	case NationalID, BankVerificationNumber:
		return truncate(keep(raw, isDigit), max)
	case VotersCard, Passport:
		return truncate(strings.ToUpper(keep(raw, isASCIIAlnum)), max)
	case DriversLicense:
		return truncate(strings.ToUpper(raw), max)
	default:
		panic(fmt.Sprintf("document: unhandled type %d", int(t)))
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isASCIIAlnum(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func keep(s string, pred func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if pred(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
