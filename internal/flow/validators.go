package flow

import (
	"regexp"
	"strings"
)

// Named input validators usable from flow step definitions.

var (
	numberRe = regexp.MustCompile(`\d`)
	emailRe  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe  = regexp.MustCompile(`\b9\d{8}\b`)
)

// ValidateNonEmpty accepts any input with at least one non-space character.
func ValidateNonEmpty(input string) bool {
	return strings.TrimSpace(input) != ""
}

// ValidateNumber accepts input containing at least one digit.
func ValidateNumber(input string) bool {
	return numberRe.MatchString(input)
}

// ValidateContact accepts input containing an email address or a Peruvian
// mobile number.
func ValidateContact(input string) bool {
	return emailRe.MatchString(input) || phoneRe.MatchString(input)
}

// validatorByName resolves a validator referenced by name from declarative
// flow data. Unknown names resolve to nil (accept everything).
func validatorByName(name string) func(string) bool {
	switch name {
	case "nonempty":
		return ValidateNonEmpty
	case "number":
		return ValidateNumber
	case "contact":
		return ValidateContact
	default:
		return nil
	}
}
