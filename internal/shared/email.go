package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var emailCaser = cases.Lower(language.Und)

// NormalizeEmail trims and lower-cases an address. Storage uniqueness and
// login lookups both go through it.
func NormalizeEmail(email string) string {
	return emailCaser.String(strings.TrimSpace(email))
}
