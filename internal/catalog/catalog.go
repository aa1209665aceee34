package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cozy-creator/meme-engine/internal/utils/pathutil"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	IndexFile    = "index.json"
	KeywordsFile = "template_keywords.json"

	maxSuggestions = 3
)

var (
	ErrIndexNotFound   = errors.New("template index not found")
	ErrInvalidIndex    = errors.New("invalid template index")
	ErrInvalidTemplate = errors.New("invalid template definition")
)

type indexEntry struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type indexFile struct {
	Templates []indexEntry `json:"templates"`
}

// Catalog holds the template definitions and keyword rule sets found under a
// templates root. It is populated by Load and LoadKeywords and must not be
// modified afterwards; readers need no locking.
type Catalog struct {
	root      string
	log       *zap.Logger
	order     []string
	templates map[string]*TemplateDefinition
	keywords  map[string]KeywordRuleSet
}

func New(root string, log *zap.Logger) *Catalog {
	return &Catalog{
		root:      root,
		log:       logger.OrNop(log),
		templates: make(map[string]*TemplateDefinition),
		keywords:  make(map[string]KeywordRuleSet),
	}
}

// Open builds a catalog and loads both the definitions and the keyword rules.
func Open(root string, log *zap.Logger) (*Catalog, error) {
	c := New(root, log)
	if err := c.Load(); err != nil {
		return nil, err
	}
	if err := c.LoadKeywords(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Root() string {
	return c.root
}

// Load reads the index and every definition it references. Entries whose
// definition is missing or invalid are skipped with a warning; only a missing
// or unreadable index is an error.
func (c *Catalog) Load() error {
	indexPath := filepath.Join(c.root, IndexFile)
	data, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrIndexNotFound, indexPath)
		}
		return fmt.Errorf("failed to read template index: %w", err)
	}

	var index indexFile
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}

	for _, entry := range index.Templates {
		log := c.log.With(zap.String("template", entry.ID), zap.String("path", entry.Path))
		if entry.ID == "" || entry.Path == "" {
			log.Warn("skipping index entry without id or path")
			continue
		}
		if _, ok := c.templates[entry.ID]; ok {
			log.Warn("skipping duplicate template id")
			continue
		}

		tpl, err := c.loadDefinition(entry)
		if err != nil {
			log.Warn("skipping template", zap.Error(err))
			continue
		}

		c.templates[entry.ID] = tpl
		c.order = append(c.order, entry.ID)
		log.Debug("loaded template")
	}

	c.log.Info("loaded template catalog", zap.Int("templates", len(c.order)), zap.String("root", c.root))
	return nil
}

func (c *Catalog) loadDefinition(entry indexEntry) (*TemplateDefinition, error) {
	path := pathutil.Resolve(c.root, entry.Path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}

	tpl, err := decodeDefinition(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	tpl.applyDefaults()
	if err := tpl.validate(); err != nil {
		return nil, err
	}
	if tpl.ID != entry.ID {
		return nil, fmt.Errorf("%w: id %q does not match index id %q", ErrInvalidTemplate, tpl.ID, entry.ID)
	}

	tpl.BasePath = filepath.Dir(path)
	return tpl, nil
}

func decodeDefinition(data []byte, ext string) (*TemplateDefinition, error) {
	var tpl TemplateDefinition
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
		}
	default:
		if err := json.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
		}
	}

	return &tpl, nil
}

// LoadKeywords reads the keyword rule file. Rule sets for ids that are not in
// the catalog are dropped. A missing file leaves the keyword matcher with
// nothing to score and is not an error.
func (c *Catalog) LoadKeywords() error {
	path := filepath.Join(c.root, KeywordsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.log.Warn("template keywords file not found", zap.String("path", path))
			return nil
		}
		return fmt.Errorf("failed to read template keywords: %w", err)
	}

	var rules map[string]KeywordRuleSet
	if err := json.Unmarshal(data, &rules); err != nil {
		c.log.Error("failed to parse template keywords", zap.String("path", path), zap.Error(err))
		return nil
	}

	for id, rule := range rules {
		if _, ok := c.templates[id]; !ok {
			c.log.Debug("ignoring keywords for unknown template", zap.String("template", id))
			continue
		}
		c.keywords[id] = rule
	}

	c.log.Info("loaded template keywords", zap.Int("templates", len(c.keywords)))
	return nil
}

func (c *Catalog) Get(id string) (*TemplateDefinition, bool) {
	tpl, ok := c.templates[id]
	return tpl, ok
}

// All returns the templates in index order. Matchers iterate this order and
// use it to break ties.
func (c *Catalog) All() []*TemplateDefinition {
	out := make([]*TemplateDefinition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.templates[id])
	}
	return out
}

func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

func (c *Catalog) Keywords(id string) (KeywordRuleSet, bool) {
	rule, ok := c.keywords[id]
	return rule, ok
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// Suggest returns up to three template ids that fuzzily match query, best
// first.
func (c *Catalog) Suggest(query string) []string {
	if query == "" || len(c.order) == 0 {
		return nil
	}

	var out []string
	for _, match := range fuzzy.Find(query, c.order) {
		out = append(out, match.Str)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// NewFromDefinitions builds a catalog from in-memory definitions, applying the
// same defaults and validation as Load. Invalid definitions are an error here.
func NewFromDefinitions(defs []*TemplateDefinition, rules map[string]KeywordRuleSet, log *zap.Logger) (*Catalog, error) {
	c := New("", log)
	for _, def := range defs {
		tpl := *def
		tpl.applyDefaults()
		if err := tpl.validate(); err != nil {
			return nil, err
		}
		if _, ok := c.templates[tpl.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidTemplate, tpl.ID)
		}
		c.templates[tpl.ID] = &tpl
		c.order = append(c.order, tpl.ID)
	}

	for id, rule := range rules {
		if _, ok := c.templates[id]; ok {
			c.keywords[id] = rule
		}
	}

	return c, nil
}
