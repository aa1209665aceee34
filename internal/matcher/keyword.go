package matcher

import (
	"strings"

	"github.com/cozy-creator/meme-engine/internal/catalog"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"go.uber.org/zap"
)

// KeywordMatcher picks a template from a raw description by literal keyword
// hits, before any concept exists.
type KeywordMatcher struct {
	catalog *catalog.Catalog
	weights KeywordWeights
	log     *zap.Logger
}

func NewKeywordMatcher(c *catalog.Catalog, weights KeywordWeights, log *zap.Logger) *KeywordMatcher {
	return &KeywordMatcher{catalog: c, weights: weights, log: logger.OrNop(log)}
}

// Score counts case-insensitive substring hits of each keyword group in
// description.
func (m *KeywordMatcher) Score(description string, rule catalog.KeywordRuleSet) int {
	text := strings.ToLower(description)
	return m.weights.Strong*hits(text, rule.Strong) +
		m.weights.Context*hits(text, rule.Context) -
		m.weights.Negative*hits(text, rule.Negative)
}

// Match returns the highest scoring template whose score reaches threshold.
// Equal scores keep the template that comes first in the catalog. Templates
// without a rule set are never selected.
func (m *KeywordMatcher) Match(description string, threshold int) (Match, bool) {
	if strings.TrimSpace(description) == "" {
		return Match{}, false
	}

	var (
		best      *catalog.TemplateDefinition
		bestScore int
	)
	for _, tpl := range m.catalog.All() {
		rule, ok := m.catalog.Keywords(tpl.ID)
		if !ok {
			continue
		}

		score := m.Score(description, rule)
		m.log.Debug("keyword score", zap.String("template", tpl.ID), zap.Int("score", score))

		if score >= threshold && (best == nil || score > bestScore) {
			best, bestScore = tpl, score
		}
	}

	if best == nil {
		return Match{}, false
	}

	m.log.Info("keyword-first match", zap.String("template", best.ID), zap.Int("score", bestScore))
	return Match{Template: best, Score: float64(bestScore)}, true
}

// Scores lists every template's keyword score in catalog order.
func (m *KeywordMatcher) Scores(description string, threshold int) []Score {
	all := m.catalog.All()
	out := make([]Score, 0, len(all))
	for _, tpl := range all {
		s := Score{TemplateID: tpl.ID, Threshold: float64(threshold)}
		if rule, ok := m.catalog.Keywords(tpl.ID); ok && strings.TrimSpace(description) != "" {
			score := m.Score(description, rule)
			s.Score = float64(score)
			s.Qualifies = score >= threshold
		}
		out = append(out, s)
	}
	return out
}

func hits(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}
