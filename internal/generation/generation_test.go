package generation

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cozy-creator/meme-engine/internal/config"
	"github.com/cozy-creator/meme-engine/internal/concept"
	"github.com/cozy-creator/meme-engine/internal/slots"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const twoButtons = `{
  "id": "two_buttons",
  "name": "Two Buttons",
  "description": "A sweating man cannot pick between two buttons",
  "use_cases": ["comparison"],
  "confidence_threshold": 0.3,
  "image": {"file": "image.png", "width": 300, "height": 300},
  "text_style": {"font": "impact", "font_size": 20, "color": "white", "stroke": true, "stroke_width": 1},
  "text_slots": [
    {"key": "option_1", "coordinates": [80, 60], "max_chars": 30},
    {"key": "option_2", "coordinates": [210, 50], "max_chars": 30}
  ],
  "example": {"option_1": "Tabs", "option_2": "Spaces"}
}`

const brokenImage = `{
  "id": "change_my_mind",
  "name": "Change My Mind",
  "description": "A man at a table with a sign",
  "use_cases": ["opinion"],
  "confidence_threshold": 0.3,
  "image": {"file": "missing.png", "width": 300, "height": 300},
  "text_style": {"font": "impact", "font_size": 20, "color": "black"},
  "text_slots": [{"key": "statement", "coordinates": [150, 200], "max_chars": 60}],
  "example": {"statement": "Tabs are better"}
}`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func solid(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 30, G: 120, B: 60, A: 255}), image.Point{}, draw.Src)
	return img
}

func newTemplatesDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(300, 300)))

	writeFile(t, filepath.Join(root, "index.json"), []byte(`{"templates": [
		{"id": "two_buttons", "path": "two_buttons/template.json"},
		{"id": "change_my_mind", "path": "change_my_mind/template.json"}
	]}`))
	writeFile(t, filepath.Join(root, "two_buttons", "template.json"), []byte(twoButtons))
	writeFile(t, filepath.Join(root, "two_buttons", "image.png"), buf.Bytes())
	writeFile(t, filepath.Join(root, "change_my_mind", "template.json"), []byte(brokenImage))
	writeFile(t, filepath.Join(root, "template_keywords.json"), []byte(`{
		"two_buttons": {"strong": ["choose", "dilemma"], "context": ["or"], "negative": []},
		"change_my_mind": {"strong": ["change my mind", "unpopular opinion"], "context": [], "negative": []}
	}`))

	return root
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.TemplatesDir = newTemplatesDir(t)

	e, err := NewEngine(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return e
}

func TestGenerateKeywordFirst(t *testing.T) {
	e := newEngine(t)

	result, err := e.Generate(Request{Description: "I can't choose, such a dilemma"})
	require.NoError(t, err)
	require.Equal(t, PathKeyword, result.Path)
	require.Equal(t, "two_buttons", result.TemplateID)
	require.Equal(t, concept.PositionBottom, result.TextPosition)
	require.Equal(t, "Choice A", result.Slots["option_1"])
	require.Equal(t, "I can't choose, such a dilemma", result.Slots["option_2"])
	require.NotEmpty(t, result.ImageBase64)
	require.NotEmpty(t, result.RequestID)
}

func TestGenerateConceptMatch(t *testing.T) {
	e := newEngine(t)
	text := "Here you go:\n```json\n" +
		`{"caption": "Morning decisions", "keywords": ["coffee", "espresso", "latte"], "use_cases": ["comparison"], "text_position": "top"}` +
		"\n```"

	result, err := e.Generate(Request{Description: "a meme about my morning", ConceptText: text})
	require.NoError(t, err)
	require.Equal(t, PathConcept, result.Path)
	require.Equal(t, "two_buttons", result.TemplateID)
	require.Equal(t, slots.SlotValues{"option_1": "Coffee", "option_2": "Espresso"}, result.Slots)
	require.Equal(t, "Morning decisions", result.Caption)
	require.Equal(t, concept.PositionTop, result.TextPosition)
}

func TestGenerateStructuredConcept(t *testing.T) {
	e := newEngine(t)
	c := concept.Concept{
		Caption:       "Pick one",
		TextPosition:  concept.PositionBottom,
		UseCases:      []string{"comparison"},
		TemplateSlots: map[string]string{"option_1": "ship it", "option_2": "write tests"},
	}

	result, err := e.Generate(Request{Concept: &c})
	require.NoError(t, err)
	require.Equal(t, PathConcept, result.Path)
	require.Equal(t, slots.SlotValues{"option_1": "Ship it", "option_2": "Write tests"}, result.Slots)
}

func TestGenerateFallsBackToCaption(t *testing.T) {
	e := newEngine(t)
	background := solid(400, 300)

	tests := []struct {
		name string
		req  Request
	}{
		{
			name: "unrecoverable concept text",
			req:  Request{Description: "cats", ConceptText: "sorry, I cannot help", Background: background},
		},
		{
			name: "no template matches",
			req:  Request{Description: "cats", ConceptText: `{"caption": "Cats rule", "use_cases": ["animals"]}`, Background: background},
		},
		{
			name: "matched template cannot render",
			req:  Request{Description: "unpopular opinion: cats rule", Background: background},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Generate(tt.req)
			require.NoError(t, err)
			require.Equal(t, PathCaption, result.Path)
			require.Empty(t, result.TemplateID)
			require.NotEmpty(t, result.Caption)

			img, _, err := image.Decode(bytes.NewReader(result.Output.Data))
			require.NoError(t, err)
			require.Equal(t, background.Bounds(), img.Bounds())
		})
	}
}

func TestGenerateNoTemplate(t *testing.T) {
	e := newEngine(t)

	_, err := e.Generate(Request{Description: "a meme about cats", ConceptText: `{"caption": "Cats rule"}`})
	require.ErrorIs(t, err, ErrNoTemplate)

	var noTemplate *NoTemplateError
	require.True(t, errors.As(err, &noTemplate))
	require.Equal(t, "Cats rule", noTemplate.Concept.Caption)
	require.Equal(t, "A funny and relatable meme scene about Cats rule", noTemplate.Concept.ImagePrompt)
}

func TestGenerateEmptyRequest(t *testing.T) {
	_, err := newEngine(t).Generate(Request{Description: "  "})
	require.ErrorIs(t, err, ErrEmptyRequest)
}

func TestRenderTemplateByID(t *testing.T) {
	e := newEngine(t)

	result, err := e.RenderTemplateByID("two_buttons", map[string]string{"option_1": "tabs", "option_2": "spaces"})
	require.NoError(t, err)
	require.Equal(t, PathDirect, result.Path)
	require.Equal(t, slots.SlotValues{"option_1": "Tabs", "option_2": "Spaces"}, result.Slots)

	_, err = e.RenderTemplateByID("two_button", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = e.RenderTemplateByID("two_buttons", map[string]string{"option_1": "tabs"})
	require.ErrorIs(t, err, slots.ErrUnfillable)
}

func TestShippedCatalogRendersExamples(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.TemplatesDir = filepath.Join("..", "..", "templates")

	e, err := NewEngine(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, 8, e.Catalog.Len())
	require.Empty(t, e.Filler.Missing(e.Catalog.IDs()))

	for _, tpl := range e.Catalog.All() {
		t.Run(tpl.ID, func(t *testing.T) {
			_, ok := e.Catalog.Keywords(tpl.ID)
			require.True(t, ok)

			result, err := e.RenderTemplateByID(tpl.ID, tpl.Example)
			require.NoError(t, err)

			img, _, err := image.Decode(bytes.NewReader(result.Output.Data))
			require.NoError(t, err)
			require.Equal(t, tpl.Image.Width, img.Bounds().Dx())
			require.Equal(t, tpl.Image.Height, img.Bounds().Dy())
		})
	}
}

func TestShippedCatalogKeywordFirst(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.TemplatesDir = filepath.Join("..", "..", "templates")

	e, err := NewEngine(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	result, err := e.Generate(Request{Description: "change my mind: this hot take is controversial"})
	require.NoError(t, err)
	require.Equal(t, PathKeyword, result.Path)
	require.Equal(t, "change_my_mind", result.TemplateID)
}
