package slots

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cozy-creator/meme-engine/internal/catalog"
	"github.com/cozy-creator/meme-engine/internal/concept"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrUnfillable = errors.New("slot unfillable")
	ErrNoStrategy = errors.New("no fill strategy for template")
)

// SlotValues maps a slot key to its final sanitised text.
type SlotValues map[string]string

// UnfillableError reports the template and, when known, the slot that could
// not be filled. Callers should move on to the next generation path.
type UnfillableError struct {
	Template string
	Slot     string
	Err      error
}

func (e *UnfillableError) Error() string {
	if e.Slot == "" {
		return fmt.Sprintf("cannot fill template %q: %v", e.Template, e.Err)
	}
	return fmt.Sprintf("cannot fill slot %q of template %q", e.Slot, e.Template)
}

func (e *UnfillableError) Is(target error) bool {
	return target == ErrUnfillable
}

func (e *UnfillableError) Unwrap() error {
	return e.Err
}

// Filler turns a concept into slot values for a matched template. Strategies
// are registered before use; Fill only reads them.
type Filler struct {
	strategies map[string]Strategy
	log        *zap.Logger
}

// NewFiller returns a Filler preloaded with the built-in strategies.
func NewFiller(log *zap.Logger) *Filler {
	return &Filler{strategies: Builtin(), log: logger.OrNop(log)}
}

// Register adds or replaces the strategy for a template id.
func (f *Filler) Register(templateID string, s Strategy) {
	f.strategies[templateID] = s
}

func (f *Filler) HasStrategy(templateID string) bool {
	_, ok := f.strategies[templateID]
	return ok
}

// Fill prefers upstream slot values when they cover every required slot and
// otherwise runs the template's strategy. Every value is sanitised to its
// slot's max_chars; an empty result fails with *UnfillableError.
func (f *Filler) Fill(tpl *catalog.TemplateDefinition, c concept.Concept) (SlotValues, error) {
	log := f.log.With(zap.String("template", tpl.ID))

	raw, ok := upstreamValues(tpl, c.TemplateSlots)
	if ok {
		log.Info("using upstream slot values")
	} else {
		strategy, found := f.strategies[tpl.ID]
		if !found {
			log.Warn("no fill strategy and no usable upstream slots")
			return nil, &UnfillableError{Template: tpl.ID, Err: ErrNoStrategy}
		}
		raw = strategy(c.Keywords, c.Caption)
		log.Debug("filled slots from strategy")
	}

	values, err := Prepare(tpl, raw)
	if err != nil {
		log.Warn("slot is empty", zap.Error(err))
		return nil, err
	}

	return values, nil
}

// Prepare sanitises raw values for every slot of tpl, ignoring extra keys.
// A slot that ends up empty fails with *UnfillableError.
func Prepare(tpl *catalog.TemplateDefinition, raw map[string]string) (SlotValues, error) {
	values := make(SlotValues, len(tpl.TextSlots))
	for _, slot := range tpl.TextSlots {
		value := Sanitize(raw[slot.Key], slot.MaxChars)
		if value == "" {
			return nil, &UnfillableError{Template: tpl.ID, Slot: slot.Key}
		}
		values[slot.Key] = value
	}

	return values, nil
}

// Missing lists the ids in ids that have no registered strategy.
func (f *Filler) Missing(ids []string) []string {
	var out []string
	for _, id := range ids {
		if !f.HasStrategy(id) {
			out = append(out, id)
		}
	}
	return out
}

func upstreamValues(tpl *catalog.TemplateDefinition, provided map[string]string) (map[string]string, bool) {
	if len(provided) == 0 {
		return nil, false
	}
	for _, slot := range tpl.TextSlots {
		if strings.TrimSpace(provided[slot.Key]) == "" {
			return nil, false
		}
	}
	return provided, true
}
