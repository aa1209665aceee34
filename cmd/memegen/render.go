package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cozy-creator/meme-engine/internal/generation"
	"github.com/cozy-creator/meme-engine/internal/render"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render [description]",
	Short: "Render a meme from a description and an optional upstream concept",
	Example: `  memegen render "when the code finally compiles"
  memegen render --concept response.json "monday standup"
  memegen render --template drake_hotline --slot nope="writing tests" --slot yep="shipping on friday"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	flags := renderCmd.Flags()
	flags.String("concept", "", "File holding the upstream concept output, '-' for stdin")
	flags.String("template", "", "Render this template directly, skipping matching")
	flags.StringToString("slot", nil, "Slot value for --template, as key=value")
	flags.String("background", "", "Background image for the caption path")
	flags.StringP("output", "o", "", "Write the image here instead of the configured storage")
}

func runRender(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	conceptFile, _ := flags.GetString("concept")
	templateID, _ := flags.GetString("template")
	slotValues, _ := flags.GetStringToString("slot")
	background, _ := flags.GetString("background")
	output, _ := flags.GetString("output")

	engine, err := newEngine()
	if err != nil {
		return err
	}

	var result *generation.Result
	if templateID != "" {
		result, err = engine.RenderTemplateByID(templateID, slotValues)
		if err != nil {
			return explainNotFound(err, engine, templateID)
		}
	} else {
		req := generation.Request{Description: strings.Join(args, " ")}
		if conceptFile != "" {
			data, err := readInput(cmd, conceptFile)
			if err != nil {
				return err
			}
			req.ConceptText = upstreamText(data)
		}
		if background != "" {
			if req.Background, err = render.LoadImage(background); err != nil {
				return err
			}
		}

		result, err = engine.Generate(req)
		var noTemplate *generation.NoTemplateError
		if errors.As(err, &noTemplate) {
			return fmt.Errorf("%w; pass --background or generate one from: %q", err, noTemplate.Concept.ImagePrompt)
		}
		if err != nil {
			return err
		}
	}

	location, err := saveOutput(result.Output, output)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), summarize(result, location))
}
