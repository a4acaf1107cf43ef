// Package sanitize cleans the free-text metadata stored with learned
// patterns. Labels and sources end up in table output and snapshot files, so
// control characters are stripped and lengths are bounded.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxLabelLength is the maximum allowed length for pattern labels.
const MaxLabelLength = 80

// MaxSourceLength is the maximum allowed length for pattern sources.
const MaxSourceLength = 512

var (
	// reRepeatedSpaces matches runs of two or more spaces.
	reRepeatedSpaces = regexp.MustCompile(` {2,}`)

	// reRepeatedHyphens matches 2 or more consecutive hyphens.
	reRepeatedHyphens = regexp.MustCompile(`-{2,}`)
)

// Label sanitizes a pattern label, keeping only letters, digits, spaces and
// "-_./:" and enforcing MaxLabelLength. Runs of spaces and hyphens are
// collapsed.
func Label(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.' || r == '/' || r == ':' || r == ' ':
			b.WriteRune(r)
		case r == '\t':
			b.WriteRune(' ')
		}
	}
	s := b.String()

	s = reRepeatedSpaces.ReplaceAllString(s, " ")
	s = reRepeatedHyphens.ReplaceAllString(s, "-")
	s = strings.TrimSpace(s)

	if len(s) > MaxLabelLength {
		s = strings.TrimSpace(s[:MaxLabelLength])
	}
	return s
}

// Source sanitizes a pattern source path. Control characters, including
// newlines, are removed and the result is truncated to MaxSourceLength with
// the tail kept, since the file name is the informative part.
func Source(input string) string {
	if input == "" {
		return ""
	}

	s := strings.TrimSpace(stripControlChars(input))
	if len(s) > MaxSourceLength {
		s = "..." + s[len(s)-MaxSourceLength+3:]
	}
	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F, 0x7F).
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
