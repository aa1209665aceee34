package matcher

import (
	"github.com/cozy-creator/meme-engine/internal/catalog"
	"github.com/cozy-creator/meme-engine/internal/config"
)

const DefaultKeywordThreshold = config.DefaultKeywordThreshold

// Match is a selected template and the score that selected it.
type Match struct {
	Template *catalog.TemplateDefinition
	Score    float64
}

// Score is one template's result in an explanation listing.
type Score struct {
	TemplateID string
	Score      float64
	Threshold  float64
	Qualifies  bool
}

// KeywordWeights scale strong, context and negative keyword hits. Negative is
// subtracted.
type KeywordWeights struct {
	Strong   int
	Context  int
	Negative int
}

func DefaultKeywordWeights() KeywordWeights {
	return KeywordWeights{
		Strong:   config.DefaultKeywordStrong,
		Context:  config.DefaultKeywordContext,
		Negative: config.DefaultKeywordNegative,
	}
}

func KeywordWeightsFromConfig(cfg config.KeywordConfig) KeywordWeights {
	return KeywordWeights{Strong: cfg.Strong, Context: cfg.Context, Negative: cfg.Negative}
}

type ConceptWeights struct {
	UseCase   float64
	Intent    float64
	Keyword   float64
	NameBonus float64
}

func DefaultConceptWeights() ConceptWeights {
	return ConceptWeights{
		UseCase:   config.DefaultConceptUseCase,
		Intent:    config.DefaultConceptIntent,
		Keyword:   config.DefaultConceptKeyword,
		NameBonus: config.DefaultConceptNameBonus,
	}
}

func ConceptWeightsFromConfig(cfg config.ConceptConfig) ConceptWeights {
	return ConceptWeights{
		UseCase:   cfg.UseCase,
		Intent:    cfg.Intent,
		Keyword:   cfg.Keyword,
		NameBonus: cfg.NameBonus,
	}
}
