package concept

import (
	"errors"
	"fmt"
	"strings"
)

type TextPosition string

const (
	PositionTop    TextPosition = "top"
	PositionBottom TextPosition = "bottom"
)

var ErrInvalidPosition = errors.New("invalid text position")

// ParsePosition accepts "top" or "bottom" in any case.
func ParsePosition(s string) (TextPosition, error) {
	switch TextPosition(strings.ToLower(strings.TrimSpace(s))) {
	case PositionTop:
		return PositionTop, nil
	case PositionBottom:
		return PositionBottom, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}

// Concept describes what a meme should say and show. It is produced per
// request and only read by the matchers and the slot filler.
type Concept struct {
	ImagePrompt    string            `json:"image_prompt"`
	NegativePrompt string            `json:"negative_prompt"`
	Caption        string            `json:"caption"`
	TextPosition   TextPosition      `json:"text_position"`
	Keywords       []string          `json:"keywords"`
	UseCases       []string          `json:"use_cases"`
	Intent         string            `json:"intent"`
	TemplateSlots  map[string]string `json:"template_slots,omitempty"`
}

func (c Concept) Validate() error {
	if _, err := ParsePosition(string(c.TextPosition)); err != nil {
		return err
	}
	if strings.TrimSpace(c.Caption) == "" {
		return errors.New("caption is empty")
	}

	return nil
}
