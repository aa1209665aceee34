package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cozy-creator/meme-engine/internal/concept"
	"github.com/cozy-creator/meme-engine/internal/config"
	"github.com/cozy-creator/meme-engine/internal/generation"
	"github.com/cozy-creator/meme-engine/internal/render"
	"github.com/cozy-creator/meme-engine/internal/services/filestorage"
	"github.com/cozy-creator/meme-engine/internal/utils/hashutil"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"github.com/spf13/cobra"
)

// conceptKeys are the fields that mark a JSON document as a concept rather
// than a response envelope around one.
var conceptKeys = []string{"image_prompt", "caption", "text_position", "template_slots"}

func newEngine() (*generation.Engine, error) {
	return generation.NewEngine(config.MustGetConfig(), logger.GetLogger())
}

// readInput reads a file, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// upstreamText returns the generated text inside data. Response envelopes
// are unwrapped; anything else, including bare concepts and text that is not
// JSON at all, is returned as-is for recovery.
func upstreamText(data []byte) string {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return string(data)
	}

	if obj, ok := payload.(map[string]any); ok {
		for _, key := range conceptKeys {
			if _, found := obj[key]; found {
				return string(data)
			}
		}
	}

	return concept.ResponseText(payload)
}

// saveOutput writes out to path when given, otherwise to the configured
// file storage under its content hash.
func saveOutput(out *render.Output, path string) (string, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return "", err
		}
		if err := os.WriteFile(path, out.Data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
		return path, nil
	}

	storage, err := filestorage.NewFileStorage(config.MustGetConfig())
	if err != nil {
		return "", err
	}

	return storage.Upload(filestorage.NewFileInfo(hashutil.Blake3Hash(out.Data), out.Extension(), out.Data))
}

type resultSummary struct {
	RequestID    string            `json:"request_id,omitempty"`
	Path         generation.Path   `json:"path"`
	TemplateID   string            `json:"template_id,omitempty"`
	Caption      string            `json:"caption,omitempty"`
	TextPosition string            `json:"text_position,omitempty"`
	Slots        map[string]string `json:"slots,omitempty"`
	Hash         string            `json:"hash"`
	Location     string            `json:"location"`
}

func summarize(result *generation.Result, location string) resultSummary {
	return resultSummary{
		RequestID:    result.RequestID,
		Path:         result.Path,
		TemplateID:   result.TemplateID,
		Caption:      result.Caption,
		TextPosition: string(result.TextPosition),
		Slots:        result.Slots,
		Hash:         result.Output.Hash,
		Location:     location,
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// explainNotFound adds catalog suggestions to a template-not-found error.
func explainNotFound(err error, engine *generation.Engine, id string) error {
	if !errors.Is(err, generation.ErrTemplateNotFound) {
		return err
	}

	if suggestions := engine.Catalog.Suggest(id); len(suggestions) > 0 {
		return fmt.Errorf("%w (did you mean %v?)", err, suggestions)
	}
	return err
}
