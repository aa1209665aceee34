package cmd

import (
	"strings"

	"github.com/cozy-creator/meme-engine/internal/concept"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Recover a normalised concept from upstream output",
	Long:  "Reads upstream concept output from a file or stdin, recovers the JSON object inside it, fills every missing field with its default and prints the result",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")

		var path string
		if len(args) > 0 {
			path = args[0]
		}
		data, err := readInput(cmd, path)
		if err != nil {
			return err
		}

		c, err := concept.Parse(upstreamText(data), strings.TrimSpace(description), logger.GetLogger())
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), c)
	},
}

func init() {
	extractCmd.Flags().StringP("description", "d", "", "Original request text, used for derived defaults")
}
