package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `
environment: dev
templates_dir: ~/.memegen/templates
fonts_dir: ~/.memegen/fonts
output_dir: ~/.memegen/output
output_format: png
filesystem_type: local
workers: 4

keyword:
  strong: 3
  context: 1
  negative: 2
  threshold: 3

concept:
  use_case: 0.5
  intent: 0.3
  keyword: 0.2
  name_bonus: 0.4

layout:
  max_lines: 4
  max_height_fraction: 0.3
  min_font_size: 14
  max_font_size: 96
  font_step: 2
  padding: 20
  line_spacing: 1.15

s3:
  endpoint_url: ""
  access_key: ""
  region_name: ""
  bucket_name: ""
  folder: "memes"
  public_url: ""
`

const envTemplate = `# MEMEGEN_ENVIRONMENT=dev
# MEMEGEN_OUTPUT_FORMAT=png
# MEMEGEN_FILESYSTEM_TYPE=local
# MEMEGEN_S3_ACCESS_KEY=
# MEMEGEN_S3_SECRET_KEY=
`

func GetConfigTemplate() string {
	return configTemplate
}

func WriteConfig(path string) error {
	return writeTemplate(path, configTemplate)
}

func WriteEnv(path string) error {
	return writeTemplate(path, envTemplate)
}

// WriteHomeTemplates writes config.yaml and .env into home unless they
// already exist. It returns the paths that were written.
func WriteHomeTemplates(home string) ([]string, error) {
	if err := CreateHomeDirs(home); err != nil {
		return nil, err
	}

	var written []string
	files := map[string]func(string) error{
		filepath.Join(home, "config.yaml"): WriteConfig,
		filepath.Join(home, ".env"):        WriteEnv,
	}
	for path, write := range files {
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return written, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if err := write(path); err != nil {
			return written, fmt.Errorf("failed to create %s: %w", path, err)
		}
		written = append(written, path)
	}

	return written, nil
}

func writeTemplate(path, content string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(content)
	if err != nil {
		return err
	}

	return nil
}
