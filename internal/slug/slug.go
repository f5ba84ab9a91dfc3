package slug

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	invalidRe    = regexp.MustCompile(`[^A-Za-z0-9\-_]+`)
)

const maxLength = 80

// Make converts free text into a filesystem- and URL-safe identifier.
// Whitespace runs become single hyphens, everything outside
// [A-Za-z0-9-_] is stripped, and the result is capped at 80 characters.
// Empty input yields "item" so callers always get a usable name.
func Make(text string) string {
	t := whitespaceRe.ReplaceAllString(strings.TrimSpace(text), "-")
	t = invalidRe.ReplaceAllString(t, "")
	if len(t) > maxLength {
		t = t[:maxLength]
	}
	if t == "" {
		return "item"
	}
	return t
}
