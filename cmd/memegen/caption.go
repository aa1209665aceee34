package cmd

import (
	"strings"

	"github.com/cozy-creator/meme-engine/internal/concept"
	"github.com/cozy-creator/meme-engine/internal/generation"
	"github.com/cozy-creator/meme-engine/internal/render"

	"github.com/spf13/cobra"
)

var captionCmd = &cobra.Command{
	Use:   "caption <image> <caption>",
	Short: "Draw a free-form caption over an image",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		positionFlag, _ := cmd.Flags().GetString("position")
		output, _ := cmd.Flags().GetString("output")

		position, err := concept.ParsePosition(positionFlag)
		if err != nil {
			return err
		}

		base, err := render.LoadImage(args[0])
		if err != nil {
			return err
		}

		engine, err := newEngine()
		if err != nil {
			return err
		}

		caption := strings.Join(args[1:], " ")
		out, err := engine.Compositor.RenderCaption(base, caption, position)
		if err != nil {
			return err
		}

		location, err := saveOutput(out, output)
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), summarize(&generation.Result{
			Path:         generation.PathCaption,
			Output:       out,
			Caption:      caption,
			TextPosition: position,
		}, location))
	},
}

func init() {
	captionCmd.Flags().String("position", string(concept.PositionBottom), "Caption position: 'top' or 'bottom'")
	captionCmd.Flags().StringP("output", "o", "", "Write the image here instead of the configured storage")
}
