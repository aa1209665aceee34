package config

import "errors"

const DefaultHome = "~/.memegen"

const DefaultWorkers = 4

const (
	DefaultKeywordStrong    = 3
	DefaultKeywordContext   = 1
	DefaultKeywordNegative  = 2
	DefaultKeywordThreshold = 3
)

const (
	DefaultConceptUseCase   = 0.5
	DefaultConceptIntent    = 0.3
	DefaultConceptKeyword   = 0.2
	DefaultConceptNameBonus = 0.4
)

const (
	DefaultMaxLines          = 4
	DefaultMaxHeightFraction = 0.3
	DefaultMinFontSize       = 14
	DefaultMaxFontSize       = 96
	DefaultFontStep          = 2
	DefaultPadding           = 20
	DefaultLineSpacing       = 1.15
)

var (
	ErrConfigLoaded        = errors.New("config already loaded")
	ErrHomeExpandFailed    = errors.New("failed to expand memegen home directory")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidFilesystem   = errors.New("invalid filesystem type")
	ErrInvalidLayout       = errors.New("invalid layout settings")
)
