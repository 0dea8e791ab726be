package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		maxLen   int
		expected string
	}{
		{
			name:     "basic title",
			in:       "Strengthening American Leadership",
			maxLen:   100,
			expected: "strengthening-american-leadership",
		},
		{
			name:     "punctuation stripped",
			in:       "Order No. 14,100: A \"Major\" Action!",
			maxLen:   100,
			expected: "order-no-14100-a-major-action",
		},
		{
			name:     "runs collapse to one hyphen",
			in:       "several   spaces -- and hyphens",
			maxLen:   100,
			expected: "several-spaces-and-hyphens",
		},
		{
			name:     "edge separators collapse but are kept",
			in:       "  -- padded title --  ",
			maxLen:   100,
			expected: "-padded-title-",
		},
		{
			name:     "accented letters survive",
			in:       "Décret présidentiel 42",
			maxLen:   100,
			expected: "décret-présidentiel-42",
		},
		{
			name:     "underscore is a word character",
			in:       "internal_code 7",
			maxLen:   100,
			expected: "internal_code-7",
		},
		{
			name:     "capped at maxLen",
			in:       strings.Repeat("abc ", 50),
			maxLen:   10,
			expected: "abc-abc-ab",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.expected, Slugify(c.in, c.maxLen))
		})
	}
}

func TestTruncateAtWordShortStringUntouched(t *testing.T) {
	require.Equal(t, "short title", TruncateAtWord("short title", 100))
}

func TestTruncateAtWordBreaksOnSpace(t *testing.T) {
	// The last space inside the budget is late enough to use, so the
	// cut lands on a word boundary.
	in := strings.Repeat("word ", 30)
	out := TruncateAtWord(in, 100)

	require.True(t, strings.HasSuffix(out, "..."))
	require.LessOrEqual(t, len([]rune(out)), 100)
	require.NotContains(t, strings.TrimSuffix(out, "..."), "  ")
	require.True(t, strings.HasSuffix(strings.TrimSuffix(out, "..."), "word"))
}

func TestTruncateAtWordIgnoresEarlySpace(t *testing.T) {
	// A single space near the start would discard most of the budget,
	// so the cut happens mid-word instead.
	in := "ab " + strings.Repeat("c", 200)
	out := TruncateAtWord(in, 100)

	require.Equal(t, 100, len([]rune(out)))
	require.Equal(t, "ab "+strings.Repeat("c", 94)+"...", out)
}

func TestTruncateAtWordNoSpaces(t *testing.T) {
	in := strings.Repeat("x", 150)
	out := TruncateAtWord(in, 50)

	require.Equal(t, strings.Repeat("x", 47)+"...", out)
}
