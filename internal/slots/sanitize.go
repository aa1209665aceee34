package slots

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const ellipsis = "..."

var noiseRe = regexp.MustCompile(`^["'\[\(\{]+|["'\]\)\}]+\.?$`)

// Sanitize normalises a slot value: underscores become spaces, wrapping
// quotes and brackets are stripped, the first letter is capitalised and the
// result is cut to maxChars runes with a trailing ellipsis. A maxChars of zero
// or less disables the limit. Sanitize(Sanitize(x, n), n) == Sanitize(x, n).
func Sanitize(text string, maxChars int) string {
	text = clean(text)
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	runes := []rune(text)
	if maxChars <= len(ellipsis) {
		return clean(string(runes[:maxChars]))
	}

	return string(runes[:maxChars-len(ellipsis)]) + ellipsis
}

func clean(text string) string {
	text = strings.ReplaceAll(text, "_", " ")
	for {
		next := strings.TrimSpace(noiseRe.ReplaceAllString(strings.TrimSpace(text), ""))
		if next == text {
			break
		}
		text = next
	}

	return capitalize(text)
}

func capitalize(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 || r == utf8.RuneError {
		return text
	}

	return string(unicode.ToUpper(r)) + text[size:]
}
