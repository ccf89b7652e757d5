// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "MX"

// lookupKeyLen is the number of trailing digits used for identity dedup.
// Mexican national numbers are 10 digits; keeping only the tail makes the key
// stable whether or not callers include the country code.
const lookupKeyLen = 10

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Digits strips every non-digit character from the input.
func Digits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LookupKey derives the dedup key for a phone number: the last 10 digits of
// the normalized form. Returns "" when the input carries no digits.
func LookupKey(input string) string {
	digits := Digits(NormalizeE164(input))
	if len(digits) > lookupKeyLen {
		digits = digits[len(digits)-lookupKeyLen:]
	}
	return digits
}
