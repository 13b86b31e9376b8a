// Package sanitize cleans free text entered by users before it is stored.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`[ \t]+`)
)

// Text strips markup and collapses runs of spaces. Line breaks are kept so
// multi-line notes survive. Entities are decoded once and the result is
// stripped again, so encoded tags do not slip through.
func Text(s string) string {
	out := tagPattern.ReplaceAllString(s, "")
	out = html.UnescapeString(out)
	out = tagPattern.ReplaceAllString(out, "")
	out = spacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Optional applies Text to a pointer. A value that is empty after cleaning
// becomes nil.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	if out == "" {
		return nil
	}
	return &out
}
