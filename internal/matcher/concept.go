package matcher

import (
	"strings"

	"github.com/cozy-creator/meme-engine/internal/catalog"
	"github.com/cozy-creator/meme-engine/internal/concept"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"go.uber.org/zap"
)

// ConceptMatcher scores a structured concept against every template's
// declared use cases, name and description.
type ConceptMatcher struct {
	catalog *catalog.Catalog
	weights ConceptWeights
	log     *zap.Logger
}

func NewConceptMatcher(c *catalog.Catalog, weights ConceptWeights, log *zap.Logger) *ConceptMatcher {
	return &ConceptMatcher{catalog: c, weights: weights, log: logger.OrNop(log)}
}

func (m *ConceptMatcher) Score(tpl *catalog.TemplateDefinition, c concept.Concept) float64 {
	var score float64

	tplUseCases := toSet(tpl.UseCases, false)
	if len(tplUseCases) > 0 {
		conceptUseCases := toSet(c.UseCases, false)
		shared := 0
		for uc := range tplUseCases {
			if _, ok := conceptUseCases[uc]; ok {
				shared++
			}
		}
		score += m.weights.UseCase * float64(shared) / float64(len(tplUseCases))
	}

	if intent := strings.ToLower(c.Intent); intent != "" {
		if _, ok := tplUseCases[intent]; ok {
			score += m.weights.Intent
		}
	}

	keywords := toSet(c.Keywords, true)
	if len(keywords) > 0 {
		text := strings.ToLower(tpl.Name + " " + tpl.Description)
		found := 0
		for kw := range keywords {
			if strings.Contains(text, kw) {
				found++
			}
		}
		score += m.weights.Keyword * float64(found) / float64(len(keywords))
	}

	caption := strings.ToLower(c.Caption)
	spacedID := strings.ToLower(strings.ReplaceAll(tpl.ID, "_", " "))
	if strings.Contains(caption, spacedID) || strings.Contains(caption, strings.ToLower(tpl.Name)) {
		score += m.weights.NameBonus
	}

	return score
}

// Match returns the best template whose score reaches its own confidence
// threshold. A template must score above zero, and equal scores keep the one
// seen first. No match means the caller should take the non-template path.
func (m *ConceptMatcher) Match(c concept.Concept) (Match, bool) {
	var best Match
	for _, s := range m.scores(c) {
		if s.Qualifies && s.Score > best.Score {
			tpl, _ := m.catalog.Get(s.TemplateID)
			best = Match{Template: tpl, Score: s.Score}
		}
	}

	if best.Template == nil {
		return Match{}, false
	}

	m.log.Info("concept match", zap.String("template", best.Template.ID), zap.Float64("score", best.Score))
	return best, true
}

// Scores lists every template's concept score in catalog order.
func (m *ConceptMatcher) Scores(c concept.Concept) []Score {
	return m.scores(c)
}

func (m *ConceptMatcher) scores(c concept.Concept) []Score {
	all := m.catalog.All()
	out := make([]Score, 0, len(all))
	for _, tpl := range all {
		score := m.Score(tpl, c)
		m.log.Debug("concept score",
			zap.String("template", tpl.ID),
			zap.Float64("score", score),
			zap.Float64("threshold", tpl.ConfidenceThreshold),
		)
		out = append(out, Score{
			TemplateID: tpl.ID,
			Score:      score,
			Threshold:  tpl.ConfidenceThreshold,
			Qualifies:  score >= tpl.ConfidenceThreshold && score > 0,
		})
	}
	return out
}

func toSet(values []string, lower bool) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
