package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slugify lower-cases label and collapses every run of characters that are
// not letters or digits into a single '-'. Leading and trailing separators
// are trimmed, so "Real Estate" and " real-estate " both give "real-estate".
func Slugify(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	pendingDash := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	return b.String()
}

// Capitalize upper-cases the first letter of label and leaves the rest
// untouched ("real estate" -> "Real estate").
func Capitalize(label string) string {
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return label
	}
	return cases.Upper(language.Und).String(string(r)) + label[size:]
}
