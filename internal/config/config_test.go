package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	home := t.TempDir()
	cfg := Default(home)

	require.Equal(t, home, cfg.Home)
	require.Equal(t, filepath.Join(home, "templates"), cfg.TemplatesDir)
	require.Equal(t, filepath.Join(home, "fonts"), cfg.FontsDir)
	require.Equal(t, filepath.Join(home, "output"), cfg.OutputDir)
	require.Equal(t, FormatPNG, cfg.OutputFormat)
	require.Equal(t, FilesystemLocal, cfg.Filesystem)
	require.Equal(t, DefaultWorkers, cfg.Workers)
	require.Equal(t, KeywordConfig{Strong: 3, Context: 1, Negative: 2, Threshold: 3}, cfg.Keyword)
	require.Equal(t, ConceptConfig{UseCase: 0.5, Intent: 0.3, Keyword: 0.2, NameBonus: 0.4}, cfg.Concept)
	require.Equal(t, DefaultMaxLines, cfg.Layout.MaxLines)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "jpg alias", mutate: func(c *Config) { c.OutputFormat = "jpg" }},
		{name: "s3", mutate: func(c *Config) { c.Filesystem = "S3" }},
		{name: "bad format", mutate: func(c *Config) { c.OutputFormat = "gif" }, wantErr: ErrInvalidOutputFormat},
		{name: "bad filesystem", mutate: func(c *Config) { c.Filesystem = "ftp" }, wantErr: ErrInvalidFilesystem},
		{name: "zero step", mutate: func(c *Config) { c.Layout.FontStep = 0 }, wantErr: ErrInvalidLayout},
		{name: "height fraction above one", mutate: func(c *Config) { c.Layout.MaxHeightFraction = 1.5 }, wantErr: ErrInvalidLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWriteHomeTemplates(t *testing.T) {
	home := filepath.Join(t.TempDir(), "memegen")

	written, err := WriteHomeTemplates(home)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{filepath.Join(home, "config.yaml"), filepath.Join(home, ".env")}, written)
	for _, sub := range []string{"templates", "fonts", "output"} {
		require.DirExists(t, filepath.Join(home, sub))
	}

	data, err := os.ReadFile(filepath.Join(home, "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, GetConfigTemplate(), string(data))

	written, err = WriteHomeTemplates(home)
	require.NoError(t, err)
	require.Empty(t, written)
}

func TestLoadEnvAndConfigFiles(t *testing.T) {
	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		config = nil
		os.Unsetenv("MEMEGEN_WORKERS")
	})

	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("output_format: jpeg\nkeyword:\n  threshold: 5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".env"), []byte("MEMEGEN_WORKERS=7\n"), 0o644))
	viper.Set("home", home)

	require.NoError(t, LoadEnvAndConfigFiles())
	require.True(t, IsLoaded())

	cfg := MustGetConfig()
	require.Equal(t, home, cfg.Home)
	require.Equal(t, FormatJPEG, cfg.OutputFormat)
	require.Equal(t, 5, cfg.Keyword.Threshold)
	require.Equal(t, DefaultKeywordStrong, cfg.Keyword.Strong)
	require.Equal(t, 7, cfg.Workers)
	require.Equal(t, filepath.Join(home, "templates"), cfg.TemplatesDir)

	require.ErrorIs(t, LoadConfig(false), ErrConfigLoaded)
}

func TestLoadEnvAndConfigFilesRejectsInvalidConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		config = nil
	})

	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("filesystem_type: ftp\n"), 0o644))
	viper.Set("home", home)

	require.ErrorIs(t, LoadEnvAndConfigFiles(), ErrInvalidFilesystem)
}
