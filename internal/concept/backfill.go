package concept

import (
	"fmt"
	"strings"

	"github.com/cozy-creator/meme-engine/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultNegativePrompt = "text, watermark, blurry, low quality"
	DefaultCaption        = "When it finally works"
	DefaultTextPosition   = PositionBottom

	imagePromptFallback = "A funny and relatable meme scene about %s"
	maxDerivedCaption   = 100
)

// Parse extracts a record from raw upstream text and backfills it into a
// complete Concept. requestText is the original user description and feeds
// the derived defaults.
func Parse(text, requestText string, log *zap.Logger) (Concept, error) {
	record, err := Extract(text)
	if err != nil {
		return Concept{}, err
	}

	return Backfill(record, requestText, log), nil
}

// Backfill converts an extracted record into a Concept, substituting a
// documented default for every missing or empty field. It never fails.
func Backfill(record map[string]any, requestText string, log *zap.Logger) Concept {
	log = logger.OrNop(log)
	substituted := func(field, value string) {
		log.Info("backfilled concept field", zap.String("field", field), zap.String("value", value))
	}

	c := Concept{
		ImagePrompt:    stringField(record, "image_prompt"),
		NegativePrompt: stringField(record, "negative_prompt"),
		Caption:        stringField(record, "caption"),
		Keywords:       listField(record, "keywords"),
		UseCases:       listField(record, "use_cases"),
		Intent:         stringField(record, "intent"),
		TemplateSlots:  slotsField(record, "template_slots"),
	}

	requestText = strings.TrimSpace(requestText)

	if c.Caption == "" {
		c.Caption = DefaultCaption
		if requestText != "" {
			c.Caption = truncateRunes(requestText, maxDerivedCaption)
		}
		substituted("caption", c.Caption)
	}

	if c.ImagePrompt == "" {
		subject := c.Caption
		if _, ok := record["caption"]; !ok && requestText != "" {
			subject = requestText
		}
		c.ImagePrompt = fmt.Sprintf(imagePromptFallback, subject)
		substituted("image_prompt", c.ImagePrompt)
	}

	if c.NegativePrompt == "" {
		c.NegativePrompt = DefaultNegativePrompt
		substituted("negative_prompt", c.NegativePrompt)
	}

	position, err := ParsePosition(stringField(record, "text_position"))
	if err != nil {
		position = DefaultTextPosition
		substituted("text_position", string(position))
	}
	c.TextPosition = position

	if c.Keywords == nil {
		c.Keywords = []string{}
		log.Debug("backfilled concept field", zap.String("field", "keywords"))
	}
	if c.UseCases == nil {
		c.UseCases = []string{}
		log.Debug("backfilled concept field", zap.String("field", "use_cases"))
	}

	return c
}

func stringField(record map[string]any, key string) string {
	switch v := record[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64, bool, int:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// listField accepts a JSON array or a comma separated string.
func listField(record map[string]any, key string) []string {
	switch v := record[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		if out == nil {
			return []string{}
		}
		return out
	default:
		return nil
	}
}

func slotsField(record map[string]any, key string) map[string]string {
	raw, ok := record[key].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}

	return out
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
