// Package sanitize cleans free-text schedule labels before they are stored
// or echoed back through the MCP server.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxLabelLength is the maximum length of a stored label, in runes.
const MaxLabelLength = 80

var (
	// reTag matches XML/HTML tags and processing instructions.
	reTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	reBackticks = regexp.MustCompile("`+")
)

// Label returns a single-line label: control characters, tags and
// backticks are removed, whitespace runs collapse to one space, and the
// result is truncated to MaxLabelLength runes.
func Label(input string) string {
	if input == "" {
		return ""
	}

	s := reTag.ReplaceAllString(input, "")
	s = reBackticks.ReplaceAllString(s, "")

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	out := []rune(b.String())
	if len(out) > MaxLabelLength {
		out = out[:MaxLabelLength]
	}
	return strings.TrimSpace(string(out))
}

// Identifier keeps only [a-zA-Z0-9-] so a user-supplied schedule ID can be
// logged and looked up safely.
func Identifier(input string) string {
	var b strings.Builder
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > 64 {
		s = s[:64]
	}
	return s
}
