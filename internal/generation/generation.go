package generation

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/cozy-creator/meme-engine/internal/catalog"
	"github.com/cozy-creator/meme-engine/internal/concept"
	"github.com/cozy-creator/meme-engine/internal/config"
	"github.com/cozy-creator/meme-engine/internal/matcher"
	"github.com/cozy-creator/meme-engine/internal/render"
	"github.com/cozy-creator/meme-engine/internal/slots"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Path names the strategy that produced a result.
type Path string

const (
	PathKeyword Path = "keyword"
	PathConcept Path = "concept"
	PathCaption Path = "caption"
	PathDirect  Path = "direct"
)

const maxCaptionChars = 150

var (
	ErrNoTemplate       = errors.New("no template could render the request")
	ErrTemplateNotFound = errors.New("template not found")
	ErrEmptyRequest     = errors.New("request has no description or concept")
)

// NoTemplateError is returned when every template path failed and no
// background image was supplied. Concept holds the normalised concept so the
// caller can hand its image prompt to an external generator.
type NoTemplateError struct {
	Concept concept.Concept
}

func (e *NoTemplateError) Error() string {
	return ErrNoTemplate.Error()
}

func (e *NoTemplateError) Is(target error) bool {
	return target == ErrNoTemplate
}

type Request struct {
	// Description is the raw user text. It drives keyword-first matching
	// and the concept defaults.
	Description string
	// ConceptText is raw upstream output to recover a concept from. Ignored
	// when Concept is set.
	ConceptText string
	Concept     *concept.Concept
	// Background is drawn on when no template applies.
	Background image.Image
}

type Result struct {
	RequestID    string
	Path         Path
	TemplateID   string
	Output       *render.Output
	ImageBase64  string
	Caption      string
	TextPosition concept.TextPosition
	ImagePrompt  string
	Slots        slots.SlotValues
}

type Options struct {
	KeywordWeights   matcher.KeywordWeights
	ConceptWeights   matcher.ConceptWeights
	KeywordThreshold int
}

func DefaultOptions() Options {
	return Options{
		KeywordWeights:   matcher.DefaultKeywordWeights(),
		ConceptWeights:   matcher.DefaultConceptWeights(),
		KeywordThreshold: matcher.DefaultKeywordThreshold,
	}
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		KeywordWeights:   matcher.KeywordWeightsFromConfig(cfg.Keyword),
		ConceptWeights:   matcher.ConceptWeightsFromConfig(cfg.Concept),
		KeywordThreshold: cfg.Keyword.Threshold,
	}
}

// Engine runs the fallback chain: keyword-first template, concept-matched
// template, then a plain caption over a background image.
type Engine struct {
	Catalog    *catalog.Catalog
	Keyword    *matcher.KeywordMatcher
	Concept    *matcher.ConceptMatcher
	Filler     *slots.Filler
	Compositor *render.Compositor

	threshold int
	log       *zap.Logger
}

func New(cat *catalog.Catalog, filler *slots.Filler, compositor *render.Compositor, opts Options, log *zap.Logger) *Engine {
	log = logger.OrNop(log)
	return &Engine{
		Catalog:    cat,
		Keyword:    matcher.NewKeywordMatcher(cat, opts.KeywordWeights, log),
		Concept:    matcher.NewConceptMatcher(cat, opts.ConceptWeights, log),
		Filler:     filler,
		Compositor: compositor,
		threshold:  opts.KeywordThreshold,
		log:        log,
	}
}

// NewEngine loads the catalog from cfg.TemplatesDir and wires every stage
// from cfg.
func NewEngine(cfg *config.Config, log *zap.Logger) (*Engine, error) {
	cat, err := catalog.Open(cfg.TemplatesDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load template catalog: %w", err)
	}

	fonts := render.NewFontLoader(log, cfg.FontsDir)
	compositor, err := render.NewCompositor(fonts, render.OptionsFromConfig(cfg), log)
	if err != nil {
		return nil, err
	}

	return New(cat, slots.NewFiller(log), compositor, OptionsFromConfig(cfg), log), nil
}

func (e *Engine) Generate(req Request) (*Result, error) {
	requestID := uuid.NewString()
	log := e.log.With(zap.String("request_id", requestID))

	if strings.TrimSpace(req.Description) == "" && req.Concept == nil && strings.TrimSpace(req.ConceptText) == "" {
		return nil, ErrEmptyRequest
	}

	c, conceptErr := e.resolveConcept(req, log)

	if result, ok := e.tryKeyword(req.Description, c, log); ok {
		result.RequestID = requestID
		return result, nil
	}

	if conceptErr != nil {
		log.Warn("concept recovery failed, skipping template matching", zap.Error(conceptErr))
	} else if result, ok := e.tryConcept(c, log); ok {
		result.RequestID = requestID
		return result, nil
	}

	if req.Background == nil {
		log.Info("no template applies and no background image given")
		return nil, &NoTemplateError{Concept: c}
	}

	out, err := e.Compositor.RenderCaption(req.Background, c.Caption, c.TextPosition)
	if err != nil {
		return nil, fmt.Errorf("failed to render caption: %w", err)
	}

	log.Info("generated caption image", zap.String("hash", out.Hash))
	return &Result{
		RequestID:    requestID,
		Path:         PathCaption,
		Output:       out,
		ImageBase64:  out.Base64(),
		Caption:      c.Caption,
		TextPosition: c.TextPosition,
		ImagePrompt:  c.ImagePrompt,
	}, nil
}

// resolveConcept returns the request's concept. When recovery fails the
// returned concept is backfilled from the description alone, together with
// the recovery error.
func (e *Engine) resolveConcept(req Request, log *zap.Logger) (concept.Concept, error) {
	if req.Concept != nil {
		return *req.Concept, nil
	}
	if strings.TrimSpace(req.ConceptText) == "" {
		return concept.Backfill(nil, req.Description, log), nil
	}

	c, err := concept.Parse(req.ConceptText, req.Description, log)
	if err != nil {
		return concept.Backfill(nil, req.Description, log), err
	}
	return c, nil
}

func (e *Engine) tryKeyword(description string, c concept.Concept, log *zap.Logger) (*Result, bool) {
	match, ok := e.Keyword.Match(description, e.threshold)
	if !ok {
		log.Debug("no keyword-first match")
		return nil, false
	}

	result, err := e.renderMatch(match.Template, c)
	if err != nil {
		log.Warn("keyword-first template failed", zap.String("template", match.Template.ID), zap.Error(err))
		return nil, false
	}

	result.Path = PathKeyword
	result.Caption = slots.Sanitize(c.Caption, maxCaptionChars)
	result.TextPosition = concept.PositionBottom
	log.Info("generated from keyword-first template", zap.String("template", match.Template.ID))
	return result, true
}

func (e *Engine) tryConcept(c concept.Concept, log *zap.Logger) (*Result, bool) {
	match, ok := e.Concept.Match(c)
	if !ok {
		log.Info("no concept match")
		return nil, false
	}

	result, err := e.renderMatch(match.Template, c)
	if err != nil {
		log.Warn("concept template failed", zap.String("template", match.Template.ID), zap.Error(err))
		return nil, false
	}

	result.Path = PathConcept
	result.Caption = c.Caption
	result.TextPosition = c.TextPosition
	log.Info("generated from concept template", zap.String("template", match.Template.ID))
	return result, true
}

func (e *Engine) renderMatch(tpl *catalog.TemplateDefinition, c concept.Concept) (*Result, error) {
	values, err := e.Filler.Fill(tpl, c)
	if err != nil {
		return nil, err
	}

	out, err := e.Compositor.RenderTemplate(tpl, values)
	if err != nil {
		return nil, err
	}

	return &Result{
		TemplateID:  tpl.ID,
		Output:      out,
		ImageBase64: out.Base64(),
		ImagePrompt: c.ImagePrompt,
		Slots:       values,
	}, nil
}

// RenderTemplateByID renders a template directly from caller supplied slot
// values, bypassing matching.
func (e *Engine) RenderTemplateByID(id string, values map[string]string) (*Result, error) {
	tpl, ok := e.Catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}

	prepared, err := slots.Prepare(tpl, values)
	if err != nil {
		return nil, err
	}

	out, err := e.Compositor.RenderTemplate(tpl, prepared)
	if err != nil {
		return nil, err
	}

	return &Result{
		RequestID:    uuid.NewString(),
		Path:         PathDirect,
		TemplateID:   tpl.ID,
		Output:       out,
		ImageBase64:  out.Base64(),
		TextPosition: concept.PositionBottom,
		Slots:        prepared,
	}, nil
}
