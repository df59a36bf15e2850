package account

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const customCodeDigits = 12

var customCodePattern = regexp.MustCompile(`^[A-Z][0-9]{12}$`)

// GenerateCustomCode returns a public account code: one uppercase letter and 12 digits.
func GenerateCustomCode() (string, error) {
	var b strings.Builder
	b.Grow(customCodeDigits + 1)

	n, err := rand.Int(rand.Reader, big.NewInt(26))
	if err != nil {
		return "", err
	}
	b.WriteByte(byte('A' + n.Int64()))

	for i := 0; i < customCodeDigits; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

// IsCustomCode reports whether s is a well-formed public account code.
func IsCustomCode(s string) bool {
	return customCodePattern.MatchString(s)
}

// ParseLookup classifies a human-entered recipient reference. It returns the upper-cased
// custom code when q looks like one, otherwise the normalized username.
func ParseLookup(q string) (code string, username string) {
	q = strings.TrimSpace(q)
	if upper := strings.ToUpper(q); IsCustomCode(upper) {
		return upper, ""
	}
	return "", NormalizeUsername(q)
}
