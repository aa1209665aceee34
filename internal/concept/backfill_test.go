package concept

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBackfillEmptyRecord(t *testing.T) {
	got := Backfill(map[string]any{}, "my boss wants slides by noon", zaptest.NewLogger(t))

	want := Concept{
		ImagePrompt:    "A funny and relatable meme scene about my boss wants slides by noon",
		NegativePrompt: DefaultNegativePrompt,
		Caption:        "my boss wants slides by noon",
		TextPosition:   PositionBottom,
		Keywords:       []string{},
		UseCases:       []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Backfill() mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, got.Validate())
}

func TestBackfillWithoutRequestText(t *testing.T) {
	got := Backfill(nil, "", nil)

	require.Equal(t, DefaultCaption, got.Caption)
	require.Equal(t, "A funny and relatable meme scene about "+DefaultCaption, got.ImagePrompt)
	require.Equal(t, PositionBottom, got.TextPosition)
}

func TestBackfillKeepsProvidedFields(t *testing.T) {
	record := map[string]any{
		"image_prompt":    "office worker staring at a whiteboard",
		"negative_prompt": "blur",
		"caption":         "When the standup becomes a sit-down",
		"text_position":   "TOP",
		"keywords":        []any{"meetings", "standup", nil, ""},
		"use_cases":       []any{"workplace"},
		"intent":          "relatable",
		"template_slots":  map[string]any{"statement": "Meetings are work", "count": 3.0, "skip": nil},
	}

	got := Backfill(record, "ignored request", zaptest.NewLogger(t))

	want := Concept{
		ImagePrompt:    "office worker staring at a whiteboard",
		NegativePrompt: "blur",
		Caption:        "When the standup becomes a sit-down",
		TextPosition:   PositionTop,
		Keywords:       []string{"meetings", "standup"},
		UseCases:       []string{"workplace"},
		Intent:         "relatable",
		TemplateSlots:  map[string]string{"statement": "Meetings are work", "count": "3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Backfill() mismatch (-want +got):\n%s", diff)
	}
}

func TestBackfillImagePromptUsesCaption(t *testing.T) {
	got := Backfill(map[string]any{"caption": "Deploy on Friday", "image_prompt": "  "}, "request", nil)

	require.Equal(t, "A funny and relatable meme scene about Deploy on Friday", got.ImagePrompt)
}

func TestBackfillInvalidPosition(t *testing.T) {
	got := Backfill(map[string]any{"text_position": "middle"}, "x", nil)

	require.Equal(t, PositionBottom, got.TextPosition)
}

func TestBackfillCommaSeparatedLists(t *testing.T) {
	got := Backfill(map[string]any{"keywords": "coffee, espresso,, latte ", "use_cases": ""}, "x", nil)

	require.Equal(t, []string{"coffee", "espresso", "latte"}, got.Keywords)
	require.Equal(t, []string{}, got.UseCases)
}

func TestBackfillTruncatesDerivedCaption(t *testing.T) {
	request := strings.Repeat("ü", 150)

	got := Backfill(map[string]any{}, request, nil)

	require.Equal(t, maxDerivedCaption, len([]rune(got.Caption)))
}

func TestParse(t *testing.T) {
	text := "Here is the concept:\n```json\n" +
		`{"caption": "Tabs vs spaces", "keywords": ["tabs", "spaces"], "use_cases": ["comparison"], "text_position": "top"}` +
		"\n```"

	got, err := Parse(text, "tabs or spaces", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, "Tabs vs spaces", got.Caption)
	require.Equal(t, []string{"tabs", "spaces"}, got.Keywords)
	require.Equal(t, PositionTop, got.TextPosition)
	require.Equal(t, DefaultNegativePrompt, got.NegativePrompt)
}

func TestParseExtractionFailure(t *testing.T) {
	_, err := Parse("no structured output", "request", nil)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
}

func TestParsePosition(t *testing.T) {
	pos, err := ParsePosition(" Bottom ")
	require.NoError(t, err)
	require.Equal(t, PositionBottom, pos)

	_, err = ParsePosition("left")
	require.ErrorIs(t, err, ErrInvalidPosition)
}

func TestConceptValidate(t *testing.T) {
	require.Error(t, Concept{Caption: "x", TextPosition: "side"}.Validate())
	require.Error(t, Concept{Caption: " ", TextPosition: PositionTop}.Validate())
	require.NoError(t, Concept{Caption: "x", TextPosition: PositionTop}.Validate())
}
