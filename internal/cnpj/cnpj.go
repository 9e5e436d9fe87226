// Package cnpj validates and formats Brazilian CNPJ identifiers (14 digits,
// displayed as NN.NNN.NNN/NNNN-NN).
package cnpj

import (
	"strings"
)

// Clean strips every non-digit character.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate reports whether s contains a plausible CNPJ: exactly 14 digits
// after cleaning, and not all digits identical ("00000000000000" etc. are
// well-known invalid fillers). Verifier digits are NOT checked here — use
// ValidateChecksum for the full modulo-11 validation.
func Validate(s string) bool {
	d := Clean(s)
	if len(d) != 14 {
		return false
	}
	first := d[0]
	for i := 1; i < len(d); i++ {
		if d[i] != first {
			return true
		}
	}
	return false
}

// checksum weights for the first and second verifier digits.
var (
	weightsFirst  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	weightsSecond = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

func verifierDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

// ValidateChecksum runs the full validation including the two modulo-11
// verifier digits. Strictly stronger than Validate.
func ValidateChecksum(s string) bool {
	if !Validate(s) {
		return false
	}
	d := Clean(s)
	if verifierDigit(d, weightsFirst) != int(d[12]-'0') {
		return false
	}
	return verifierDigit(d, weightsSecond) == int(d[13]-'0')
}

// Format renders the canonical display form by progressive grouping
// (2-3-3-4-2 joined by '.', '.', '/', '-'). Partial input is formatted as far
// as the digits go, so the function can back an as-you-type mask. Input longer
// than 14 digits is returned unchanged. Format is idempotent on its own
// output and Clean(Format(d)) == d for any 14-digit d.
func Format(s string) string {
	d := Clean(s)
	if len(d) > 14 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(d); i++ {
		switch i {
		case 2, 5:
			b.WriteByte('.')
		case 8:
			b.WriteByte('/')
		case 12:
			b.WriteByte('-')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}
