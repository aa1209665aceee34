package slots

import "fmt"

// Strategy derives slot values for one template from the concept's ordered
// keywords and its caption. Missing keys are reported as unfillable by the
// Filler.
type Strategy func(keywords []string, caption string) map[string]string

func keywordOr(keywords []string, i int, fallback string) string {
	if i < len(keywords) {
		return keywords[i]
	}
	return fallback
}

// pairStrategy fills two slots from the first two keywords, or a fixed
// placeholder and the caption when there are fewer than two.
func pairStrategy(first, second, placeholder string) Strategy {
	return func(keywords []string, caption string) map[string]string {
		if len(keywords) >= 2 {
			return map[string]string{first: keywords[0], second: keywords[1]}
		}
		return map[string]string{first: placeholder, second: caption}
	}
}

// captionStrategy puts the caption into a single slot.
func captionStrategy(key string) Strategy {
	return func(_ []string, caption string) map[string]string {
		return map[string]string{key: caption}
	}
}

func distractedBoyfriend(keywords []string, caption string) map[string]string {
	if len(keywords) >= 3 {
		return map[string]string{
			"subject":    keywords[0],
			"old_option": keywords[1],
			"new_option": keywords[2],
		}
	}

	return map[string]string{
		"subject":    keywordOr(keywords, 0, "Me"),
		"old_option": keywordOr(keywords, 1, "Existing choice"),
		"new_option": caption,
	}
}

// expandingBrain spreads up to four keywords over the levels. The last level
// falls back to the caption, the others to a level label.
func expandingBrain(keywords []string, caption string) map[string]string {
	values := make(map[string]string, 4)
	for i := 1; i <= 4; i++ {
		fallback := fmt.Sprintf("Level %d", i)
		if i == 4 {
			fallback = caption
		}
		values[fmt.Sprintf("level_%d", i)] = keywordOr(keywords, i-1, fallback)
	}
	return values
}

// Builtin returns a fresh copy of the built-in strategies keyed by template id.
func Builtin() map[string]Strategy {
	return map[string]Strategy{
		"distracted_boyfriend": distractedBoyfriend,
		"drake_hotline":        pairStrategy("nope", "yep", "Boring stuff"),
		"two_buttons":          pairStrategy("option_1", "option_2", "Choice A"),
		"expanding_brain":      expandingBrain,
		"change_my_mind":       captionStrategy("statement"),
		"monkey_puppet":        captionStrategy("reaction"),
		"hands_up_opinion":     captionStrategy("opinion"),
		"woman_yelling_cat":    pairStrategy("yelling_woman", "confused_cat", "Competitors"),
	}
}
