package catalog

import (
	"fmt"
	"strings"
)

const (
	AlignCenter = "center"
	AlignLeft   = "left"

	DefaultStrokeColor = "black"
)

type ImageSpec struct {
	File   string `json:"file" yaml:"file"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

type TextStyle struct {
	Font        string  `json:"font" yaml:"font"`
	FontSize    float64 `json:"font_size" yaml:"font_size"`
	Color       string  `json:"color" yaml:"color"`
	Stroke      bool    `json:"stroke" yaml:"stroke"`
	StrokeWidth int     `json:"stroke_width" yaml:"stroke_width"`
	StrokeColor string  `json:"stroke_color" yaml:"stroke_color"`
	Align       string  `json:"align" yaml:"align"`
}

// TextSlot is one named text position. Coordinates are the anchor point: the
// centre of the text for center alignment, its top-left corner for left.
type TextSlot struct {
	Key         string `json:"key" yaml:"key"`
	Coordinates [2]int `json:"coordinates" yaml:"coordinates"`
	MaxChars    int    `json:"max_chars" yaml:"max_chars"`
}

type TemplateDefinition struct {
	ID                  string            `json:"id" yaml:"id"`
	Name                string            `json:"name" yaml:"name"`
	Description         string            `json:"description" yaml:"description"`
	UseCases            []string          `json:"use_cases" yaml:"use_cases"`
	ConfidenceThreshold float64           `json:"confidence_threshold" yaml:"confidence_threshold"`
	Image               ImageSpec         `json:"image" yaml:"image"`
	TextStyle           TextStyle         `json:"text_style" yaml:"text_style"`
	TextSlots           []TextSlot        `json:"text_slots" yaml:"text_slots"`
	Example             map[string]string `json:"example" yaml:"example"`

	// BasePath is the directory holding the definition file. Image and font
	// references resolve against it.
	BasePath string `json:"-" yaml:"-"`
}

// SlotKeys returns the required slot keys in declaration order.
func (t *TemplateDefinition) SlotKeys() []string {
	keys := make([]string, 0, len(t.TextSlots))
	for _, slot := range t.TextSlots {
		keys = append(keys, slot.Key)
	}
	return keys
}

func (t *TemplateDefinition) Slot(key string) (TextSlot, bool) {
	for _, slot := range t.TextSlots {
		if slot.Key == key {
			return slot, true
		}
	}
	return TextSlot{}, false
}

func (t *TemplateDefinition) applyDefaults() {
	t.TextStyle.Align = strings.ToLower(strings.TrimSpace(t.TextStyle.Align))
	if t.TextStyle.Align == "" {
		t.TextStyle.Align = AlignCenter
	}
	if t.TextStyle.StrokeColor == "" {
		t.TextStyle.StrokeColor = DefaultStrokeColor
	}
	if t.UseCases == nil {
		t.UseCases = []string{}
	}
}

func (t *TemplateDefinition) validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTemplate)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTemplate)
	}
	if t.Image.File == "" {
		return fmt.Errorf("%w: missing image file", ErrInvalidTemplate)
	}
	if t.Image.Width < 0 || t.Image.Height < 0 {
		return fmt.Errorf("%w: negative image size", ErrInvalidTemplate)
	}
	if t.TextStyle.Align != AlignCenter && t.TextStyle.Align != AlignLeft {
		return fmt.Errorf("%w: unknown align %q", ErrInvalidTemplate, t.TextStyle.Align)
	}
	if len(t.TextSlots) == 0 {
		return fmt.Errorf("%w: no text slots", ErrInvalidTemplate)
	}

	seen := make(map[string]struct{}, len(t.TextSlots))
	for _, slot := range t.TextSlots {
		if slot.Key == "" {
			return fmt.Errorf("%w: slot without key", ErrInvalidTemplate)
		}
		if _, ok := seen[slot.Key]; ok {
			return fmt.Errorf("%w: duplicate slot %q", ErrInvalidTemplate, slot.Key)
		}
		seen[slot.Key] = struct{}{}

		if slot.MaxChars <= 0 {
			return fmt.Errorf("%w: slot %q has max_chars %d", ErrInvalidTemplate, slot.Key, slot.MaxChars)
		}
	}

	return nil
}

// KeywordRuleSet drives the keyword-first matcher for one template.
type KeywordRuleSet struct {
	Strong   []string `json:"strong" yaml:"strong"`
	Context  []string `json:"context" yaml:"context"`
	Negative []string `json:"negative" yaml:"negative"`
}
