package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cozy-creator/meme-engine/internal/utils/pathutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FilesystemLocal = "local"
	FilesystemS3    = "s3"
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

const EnvPrefix = "MEMEGEN"

type Config struct {
	Environment  string        `mapstructure:"environment"`
	Home         string        `mapstructure:"home"`
	TemplatesDir string        `mapstructure:"templates_dir"`
	FontsDir     string        `mapstructure:"fonts_dir"`
	OutputDir    string        `mapstructure:"output_dir"`
	OutputFormat string        `mapstructure:"output_format"`
	Filesystem   string        `mapstructure:"filesystem_type"`
	Workers      int           `mapstructure:"workers"`
	Keyword      KeywordConfig `mapstructure:"keyword"`
	Concept      ConceptConfig `mapstructure:"concept"`
	Layout       LayoutConfig  `mapstructure:"layout"`
	S3           *S3Config     `mapstructure:"s3"`
}

// KeywordConfig holds the keyword-first matcher weights. Negative is
// subtracted per negative hit.
type KeywordConfig struct {
	Strong    int `mapstructure:"strong"`
	Context   int `mapstructure:"context"`
	Negative  int `mapstructure:"negative"`
	Threshold int `mapstructure:"threshold"`
}

type ConceptConfig struct {
	UseCase   float64 `mapstructure:"use_case"`
	Intent    float64 `mapstructure:"intent"`
	Keyword   float64 `mapstructure:"keyword"`
	NameBonus float64 `mapstructure:"name_bonus"`
}

type LayoutConfig struct {
	MaxLines          int     `mapstructure:"max_lines"`
	MaxHeightFraction float64 `mapstructure:"max_height_fraction"`
	MinFontSize       float64 `mapstructure:"min_font_size"`
	MaxFontSize       float64 `mapstructure:"max_font_size"`
	FontStep          float64 `mapstructure:"font_step"`
	Padding           int     `mapstructure:"padding"`
	LineSpacing       float64 `mapstructure:"line_spacing"`
}

type S3Config struct {
	Folder      string `mapstructure:"folder"`
	Region      string `mapstructure:"region_name"`
	Bucket      string `mapstructure:"bucket_name"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	PublicUrl   string `mapstructure:"public_url"`
	EndpointUrl string `mapstructure:"endpoint_url"`
}

var config *Config

// SetDefaults registers every default on v. Flags bound later take
// precedence.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")
	v.SetDefault("home", DefaultHome)
	v.SetDefault("output_format", FormatPNG)
	v.SetDefault("filesystem_type", FilesystemLocal)
	v.SetDefault("workers", DefaultWorkers)

	v.SetDefault("keyword.strong", DefaultKeywordStrong)
	v.SetDefault("keyword.context", DefaultKeywordContext)
	v.SetDefault("keyword.negative", DefaultKeywordNegative)
	v.SetDefault("keyword.threshold", DefaultKeywordThreshold)

	v.SetDefault("concept.use_case", DefaultConceptUseCase)
	v.SetDefault("concept.intent", DefaultConceptIntent)
	v.SetDefault("concept.keyword", DefaultConceptKeyword)
	v.SetDefault("concept.name_bonus", DefaultConceptNameBonus)

	v.SetDefault("layout.max_lines", DefaultMaxLines)
	v.SetDefault("layout.max_height_fraction", DefaultMaxHeightFraction)
	v.SetDefault("layout.min_font_size", DefaultMinFontSize)
	v.SetDefault("layout.max_font_size", DefaultMaxFontSize)
	v.SetDefault("layout.font_step", DefaultFontStep)
	v.SetDefault("layout.padding", DefaultPadding)
	v.SetDefault("layout.line_spacing", DefaultLineSpacing)
}

// Default returns a Config built only from defaults, rooted at home.
func Default(home string) *Config {
	v := viper.New()
	SetDefaults(v)
	v.Set("home", home)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("unmarshal default config: %v", err))
	}
	fillDirs(cfg)
	return cfg
}

// LoadEnvAndConfigFiles resolves the memegen home, loads its .env file and
// config.yaml (when present) into the global viper instance and builds the
// global Config.
func LoadEnvAndConfigFiles() error {
	SetDefaults(viper.GetViper())

	home, err := getHome()
	if err != nil {
		return err
	}
	viper.Set("home", home)

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(home, ".env")
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat .env file: %w", err)
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`, `-`, `_`))
	viper.AutomaticEnv()

	configFile := viper.GetString("config_file")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(home)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config: %w", err)
		}
	}

	return LoadConfig(true)
}

func LoadConfig(reload bool) error {
	if config != nil && !reload {
		return ErrConfigLoaded
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	fillDirs(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	config = cfg
	return nil
}

func IsLoaded() bool {
	return config != nil
}

func MustGetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.OutputFormat) {
	case FormatPNG, FormatJPEG, "jpg":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, c.OutputFormat)
	}

	switch strings.ToLower(c.Filesystem) {
	case FilesystemLocal, FilesystemS3:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidFilesystem, c.Filesystem)
	}

	if c.Layout.MinFontSize <= 0 || c.Layout.FontStep <= 0 {
		return ErrInvalidLayout
	}
	if c.Layout.MaxHeightFraction <= 0 || c.Layout.MaxHeightFraction > 1 {
		return ErrInvalidLayout
	}

	return nil
}

func fillDirs(cfg *Config) {
	if cfg.TemplatesDir == "" {
		cfg.TemplatesDir = filepath.Join(cfg.Home, "templates")
	}
	if cfg.FontsDir == "" {
		cfg.FontsDir = filepath.Join(cfg.Home, "fonts")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(cfg.Home, "output")
	}

	for _, p := range []*string{&cfg.Home, &cfg.TemplatesDir, &cfg.FontsDir, &cfg.OutputDir} {
		if expanded, err := pathutil.ExpandPath(*p); err == nil {
			*p = expanded
		}
	}
}

// Returns the memegen home directory path.
// It attempts to retrieve the home directory from the following sources in order:
// 1. The `home` flag from viper.
// 2. The `MEMEGEN_HOME` environment variable.
// 3. The default home directory.
func getHome() (string, error) {
	home := viper.GetString("home")
	if home == "" || home == DefaultHome {
		if env := os.Getenv(EnvPrefix + "_HOME"); env != "" {
			home = env
		}
	}
	if home == "" {
		home = DefaultHome
	}

	home, err := pathutil.ExpandPath(home)
	if err != nil {
		return "", ErrHomeExpandFailed
	}

	return home, nil
}

// CreateHomeDirs creates the home directory and its standard subfolders.
func CreateHomeDirs(home string) error {
	subdirs := []string{"templates", "fonts", "output"}
	if err := os.MkdirAll(home, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	for _, subdir := range subdirs {
		dir := filepath.Join(home, subdir)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", subdir, err)
		}
	}

	return nil
}
