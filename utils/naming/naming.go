// Package naming turns free-text university names into comparison keys.
package naming

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	disallowedChars = regexp.MustCompile(`[^a-z0-9\t\n\v\f\r -]`)
	separatorRun    = regexp.MustCompile(`[\t\n\v\f\r _]+`)
	hyphenRun       = regexp.MustCompile(`-{2,}`)
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)
)

// Normalize returns the hyphenated comparison key for a university name.
// "Carnegie-Mellon   University" and "carnegie mellon university" both
// become "carnegie-mellon-university".
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(foldSpace, s)
	s = disallowedChars.ReplaceAllString(s, "")
	s = separatorRun.ReplaceAllString(s, "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeForMatching keeps only ASCII letters and digits. Bucket folder
// names differ from database names by separator style alone, so this is the
// key used when pairing the two.
func NormalizeForMatching(name string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "")
}

// foldSpace maps Unicode whitespace (NBSP, ideographic space) onto ASCII space
func foldSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}
