package layout

import (
	"strings"

	"golang.org/x/image/font"
)

// Measure returns the advance width of s in whole pixels, rounded up.
func Measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// Wrap breaks text into lines no wider than maxWidth. Words are added
// greedily; a word that is wider than maxWidth on its own is split in halves
// until every fragment fits or is a single rune, and each fragment starts a
// new line. Whitespace runs collapse to single spaces; no other character is
// dropped or reordered. A non-positive maxWidth disables wrapping.
func Wrap(text string, maxWidth int, face font.Face) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var (
		lines   []string
		current string
	)
	flush := func() {
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
	}

	for _, word := range words {
		if Measure(face, word) > maxWidth {
			flush()
			fragments := split(word, maxWidth, face)
			lines = append(lines, fragments[:len(fragments)-1]...)
			current = fragments[len(fragments)-1]
			continue
		}

		if current == "" {
			current = word
			continue
		}

		candidate := current + " " + word
		if Measure(face, candidate) <= maxWidth {
			current = candidate
			continue
		}

		flush()
		current = word
	}
	flush()

	return lines
}

// split halves word rune-wise until each piece fits maxWidth or cannot be
// split further.
func split(word string, maxWidth int, face font.Face) []string {
	runes := []rune(word)
	if len(runes) <= 1 || Measure(face, word) <= maxWidth {
		return []string{word}
	}

	mid := len(runes) / 2
	return append(split(string(runes[:mid]), maxWidth, face), split(string(runes[mid:]), maxWidth, face)...)
}
