package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const twoButtonsJSON = `{
  "id": "two_buttons",
  "name": "Two Buttons",
  "description": "A sweating man cannot choose between two buttons",
  "use_cases": ["comparison", "dilemma"],
  "confidence_threshold": 0.3,
  "image": {"file": "image.png", "width": 600, "height": 908},
  "text_style": {"font": "impact.ttf", "font_size": 28, "color": "#ffffff", "stroke": true, "stroke_width": 2},
  "text_slots": [
    {"key": "option_1", "coordinates": [140, 110], "max_chars": 30},
    {"key": "option_2", "coordinates": [330, 90], "max_chars": 30}
  ],
  "example": {"option_1": "Tabs", "option_2": "Spaces"}
}`

const changeMyMindYAML = `id: change_my_mind
name: Change My Mind
description: A man at a table with a sign inviting debate
use_cases: [opinion, debate]
confidence_threshold: 0.4
image:
  file: image.jpg
  width: 800
  height: 600
text_style:
  font: impact.ttf
  font_size: 32
  color: black
  align: left
text_slots:
  - key: statement
    coordinates: [350, 420]
    max_chars: 60
example:
  statement: Pineapple belongs on pizza
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, IndexFile), `{"templates": [
		{"id": "two_buttons", "path": "two_buttons/template.json"},
		{"id": "change_my_mind", "path": "change_my_mind/template.yaml"},
		{"id": "missing_file", "path": "missing_file/template.json"},
		{"id": "broken", "path": "broken/template.json"},
		{"id": "no_slots", "path": "no_slots/template.json"},
		{"id": "wrong_id", "path": "two_buttons/template.json"},
		{"id": "two_buttons", "path": "two_buttons/template.json"}
	]}`)
	writeFile(t, filepath.Join(root, "two_buttons", "template.json"), twoButtonsJSON)
	writeFile(t, filepath.Join(root, "change_my_mind", "template.yaml"), changeMyMindYAML)
	writeFile(t, filepath.Join(root, "broken", "template.json"), `{"id": "broken", "name": `)
	writeFile(t, filepath.Join(root, "no_slots", "template.json"),
		`{"id": "no_slots", "name": "No Slots", "image": {"file": "a.png"}, "text_slots": []}`)
	writeFile(t, filepath.Join(root, KeywordsFile), `{
		"two_buttons": {"strong": ["choose", "dilemma"], "context": ["or"], "negative": ["easy"]},
		"ghost_template": {"strong": ["boo"]}
	}`)

	return root
}

func TestLoad(t *testing.T) {
	root := newFixture(t)
	c := New(root, zaptest.NewLogger(t))

	require.NoError(t, c.Load())
	require.Equal(t, 2, c.Len())
	require.Equal(t, []string{"two_buttons", "change_my_mind"}, c.IDs())

	tpl, ok := c.Get("two_buttons")
	require.True(t, ok)
	require.Equal(t, "Two Buttons", tpl.Name)
	require.Equal(t, filepath.Join(root, "two_buttons"), tpl.BasePath)
	require.Equal(t, AlignCenter, tpl.TextStyle.Align)
	require.Equal(t, DefaultStrokeColor, tpl.TextStyle.StrokeColor)
	require.Equal(t, [2]int{140, 110}, tpl.TextSlots[0].Coordinates)
	require.Equal(t, []string{"option_1", "option_2"}, tpl.SlotKeys())

	yamlTpl, ok := c.Get("change_my_mind")
	require.True(t, ok)
	require.Equal(t, AlignLeft, yamlTpl.TextStyle.Align)
	require.Equal(t, 60, yamlTpl.TextSlots[0].MaxChars)
	require.Equal(t, "Pineapple belongs on pizza", yamlTpl.Example["statement"])

	_, ok = c.Get("broken")
	require.False(t, ok)
	_, ok = c.Get("wrong_id")
	require.False(t, ok)
}

func TestLoadMissingIndex(t *testing.T) {
	c := New(t.TempDir(), nil)

	err := c.Load()
	require.True(t, errors.Is(err, ErrIndexNotFound))
	require.Zero(t, c.Len())
}

func TestLoadInvalidIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, IndexFile), `{"templates": [`)

	err := New(root, nil).Load()
	require.ErrorIs(t, err, ErrInvalidIndex)
}

func TestLoadKeywords(t *testing.T) {
	root := newFixture(t)
	c := New(root, zaptest.NewLogger(t))
	require.NoError(t, c.Load())
	require.NoError(t, c.LoadKeywords())

	rule, ok := c.Keywords("two_buttons")
	require.True(t, ok)
	require.Equal(t, []string{"choose", "dilemma"}, rule.Strong)

	_, ok = c.Keywords("ghost_template")
	require.False(t, ok)
	_, ok = c.Keywords("change_my_mind")
	require.False(t, ok)
}

func TestLoadKeywordsMissingFile(t *testing.T) {
	root := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(root, KeywordsFile)))

	c, err := Open(root, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	_, ok := c.Keywords("two_buttons")
	require.False(t, ok)
}

func TestValidate(t *testing.T) {
	valid := func() *TemplateDefinition {
		return &TemplateDefinition{
			ID:        "t",
			Name:      "T",
			Image:     ImageSpec{File: "a.png"},
			TextSlots: []TextSlot{{Key: "a", MaxChars: 10}},
		}
	}

	tests := map[string]func(*TemplateDefinition){
		"missing id":     func(t *TemplateDefinition) { t.ID = "" },
		"missing name":   func(t *TemplateDefinition) { t.Name = " " },
		"missing image":  func(t *TemplateDefinition) { t.Image.File = "" },
		"bad align":      func(t *TemplateDefinition) { t.TextStyle.Align = "right" },
		"no slots":       func(t *TemplateDefinition) { t.TextSlots = nil },
		"duplicate slot": func(t *TemplateDefinition) { t.TextSlots = append(t.TextSlots, TextSlot{Key: "a", MaxChars: 3}) },
		"zero max chars": func(t *TemplateDefinition) { t.TextSlots[0].MaxChars = 0 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			tpl := valid()
			mutate(tpl)
			tpl.applyDefaults()
			require.ErrorIs(t, tpl.validate(), ErrInvalidTemplate)
		})
	}

	tpl := valid()
	tpl.applyDefaults()
	require.NoError(t, tpl.validate())
}

func TestNewFromDefinitions(t *testing.T) {
	defs := []*TemplateDefinition{
		{ID: "a", Name: "A", Image: ImageSpec{File: "a.png"}, TextSlots: []TextSlot{{Key: "x", MaxChars: 5}}},
		{ID: "b", Name: "B", Image: ImageSpec{File: "b.png"}, TextSlots: []TextSlot{{Key: "y", MaxChars: 5}}},
	}
	rules := map[string]KeywordRuleSet{"b": {Strong: []string{"bee"}}, "z": {Strong: []string{"zed"}}}

	c, err := NewFromDefinitions(defs, rules, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, c.IDs())
	_, ok := c.Keywords("z")
	require.False(t, ok)

	_, err = NewFromDefinitions(append(defs, defs[0]), nil, nil)
	require.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestSuggest(t *testing.T) {
	c, err := Open(newFixture(t), nil)
	require.NoError(t, err)

	suggestions := c.Suggest("twobtn")
	require.NotEmpty(t, suggestions)
	require.Equal(t, "two_buttons", suggestions[0])
	require.Empty(t, c.Suggest(""))
}
