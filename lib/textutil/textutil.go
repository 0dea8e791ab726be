package textutil

import (
	"regexp"
	"strings"
)

// word characters in the unicode sense: letters, digits, underscore
var nonSlugChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
var slugSeparators = regexp.MustCompile(`[-\s]+`)

// Slugify reduces a free-form title to a url-safe identifier:
// lowercase, punctuation stripped, runs of whitespace and hyphens
// collapsed to a single hyphen, capped at maxLen characters.
// Separators at the edges collapse to a hyphen like everywhere else;
// they are not trimmed.
func Slugify(s string, maxLen int) string {
	s = strings.ToLower(s)
	s = nonSlugChars.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return s
}

// TruncateAtWord shortens s to at most maxLen characters, preferring
// to break at the last space as long as that doesn't throw away more
// than ~30% of the budget. An ellipsis marker is appended when
// anything was cut.
func TruncateAtWord(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	truncated := runes[:maxLen-3]
	lastSpace := -1
	for i := len(truncated) - 1; i >= 0; i-- {
		if truncated[i] == ' ' {
			lastSpace = i
			break
		}
	}
	if float64(lastSpace) > float64(maxLen)*0.7 {
		truncated = truncated[:lastSpace]
	}

	return string(truncated) + "..."
}
