package slots

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxChars int
		want     string
	}{
		{name: "empty", input: "", maxChars: 10, want: ""},
		{name: "underscores", input: "old_option", maxChars: 30, want: "Old option"},
		{name: "capitalise", input: "coffee", maxChars: 30, want: "Coffee"},
		{name: "surrounding quotes", input: `"espresso"`, maxChars: 30, want: "Espresso"},
		{name: "brackets and trailing dot", input: "[manual review].", maxChars: 30, want: "Manual review"},
		{name: "nested noise", input: `  ( "quoted" )  `, maxChars: 30, want: "Quoted"},
		{name: "inner whitespace kept", input: "  two  spaces\tand a tab ", maxChars: 30, want: "Two  spaces\tand a tab"},
		{name: "inner punctuation kept", input: "it's (mostly) fine", maxChars: 30, want: "It's (mostly) fine"},
		{name: "truncate", input: "this caption is far too long", maxChars: 10, want: "This ca..."},
		{name: "exact length", input: "abcdefghij", maxChars: 10, want: "Abcdefghij"},
		{name: "multibyte", input: "ünïcödé everywhere", maxChars: 8, want: "Ünïcö..."},
		{name: "tiny limit", input: `ab"cd`, maxChars: 3, want: "Ab"},
		{name: "no limit", input: strings.Repeat("a", 200), maxChars: 0, want: "A" + strings.Repeat("a", 199)},
		{name: "only noise", input: `"'[]'"`, maxChars: 10, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Sanitize(tt.input, tt.maxChars))
		})
	}
}

func TestSanitizeIdempotentAndBounded(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"snake_case_value",
		`"quoted value"`,
		`" "nested" quotes"`,
		"{braces}.",
		"  trailing space ",
		`she said "no"...`,
		"a very long caption that keeps going well past any sane slot limit",
		"ßtraße",
		`ab"cd`,
		"word )",
	}

	for _, input := range inputs {
		for _, maxChars := range []int{0, 1, 3, 4, 5, 12, 40} {
			once := Sanitize(input, maxChars)
			require.Equal(t, once, Sanitize(once, maxChars), "input %q max %d", input, maxChars)
			if maxChars > 0 {
				require.LessOrEqual(t, utf8.RuneCountInString(once), maxChars, "input %q max %d", input, maxChars)
			}
		}
	}
}
