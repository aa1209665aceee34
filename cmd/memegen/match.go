package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cozy-creator/meme-engine/internal/concept"
	"github.com/cozy-creator/meme-engine/internal/config"
	"github.com/cozy-creator/meme-engine/internal/matcher"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [description]",
	Short: "Show which template a description or concept selects",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conceptFile, _ := cmd.Flags().GetString("concept")
		explain, _ := cmd.Flags().GetBool("explain")
		description := strings.Join(args, " ")
		log := logger.GetLogger()

		engine, err := newEngine()
		if err != nil {
			return err
		}

		c := concept.Backfill(nil, description, log)
		if conceptFile != "" {
			data, err := readInput(cmd, conceptFile)
			if err != nil {
				return err
			}
			if c, err = concept.Parse(upstreamText(data), description, log); err != nil {
				return err
			}
		}

		threshold := config.MustGetConfig().Keyword.Threshold
		w := cmd.OutOrStdout()

		if match, ok := engine.Keyword.Match(description, threshold); ok {
			fmt.Fprintf(w, "keyword: %s (score %g)\n", match.Template.ID, match.Score)
		} else {
			fmt.Fprintln(w, "keyword: no match")
		}
		if match, ok := engine.Concept.Match(c); ok {
			fmt.Fprintf(w, "concept: %s (score %.2f)\n", match.Template.ID, match.Score)
		} else {
			fmt.Fprintln(w, "concept: no match")
		}

		if !explain {
			return nil
		}

		fmt.Fprintln(w, "\nkeyword scores:")
		writeScores(w, engine.Keyword.Scores(description, threshold))
		fmt.Fprintln(w, "\nconcept scores:")
		writeScores(w, engine.Concept.Scores(c))
		return nil
	},
}

func init() {
	matchCmd.Flags().String("concept", "", "File holding the upstream concept output, '-' for stdin")
	matchCmd.Flags().Bool("explain", false, "Print every template's score")
}

func writeScores(w io.Writer, scores []matcher.Score) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEMPLATE\tSCORE\tTHRESHOLD\tQUALIFIES")
	for _, s := range scores {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%t\n", s.TemplateID, s.Score, s.Threshold, s.Qualifies)
	}
	tw.Flush()
}
