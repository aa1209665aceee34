package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cozy-creator/meme-engine/internal/utils/pathutil"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the template catalog",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSLOTS\tUSE CASES")
			for _, tpl := range engine.Catalog.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tpl.ID, tpl.Name, strings.Join(tpl.SlotKeys(), ","), strings.Join(tpl.UseCases, ","))
			}
			return tw.Flush()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a template definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}

			tpl, ok := engine.Catalog.Get(args[0])
			if !ok {
				if suggestions := engine.Catalog.Suggest(args[0]); len(suggestions) > 0 {
					return fmt.Errorf("template %q not found (did you mean %v?)", args[0], suggestions)
				}
				return fmt.Errorf("template %q not found", args[0])
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(tpl); err != nil {
				return err
			}
			if rule, ok := engine.Catalog.Keywords(tpl.ID); ok {
				if err := enc.Encode(map[string]any{"keywords": rule}); err != nil {
					return err
				}
			}
			return enc.Close()
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report templates that cannot render",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			problems := 0
			for _, tpl := range engine.Catalog.All() {
				if !pathutil.Exists(pathutil.Resolve(tpl.BasePath, tpl.Image.File)) {
					fmt.Fprintf(w, "%s: image %s not found\n", tpl.ID, tpl.Image.File)
					problems++
				}
				if _, ok := engine.Catalog.Keywords(tpl.ID); !ok {
					fmt.Fprintf(w, "%s: no keyword rules, only concept matching applies\n", tpl.ID)
				}
			}
			for _, id := range engine.Filler.Missing(engine.Catalog.IDs()) {
				fmt.Fprintf(w, "%s: no fill strategy, needs upstream slot values\n", id)
			}

			if problems > 0 {
				return fmt.Errorf("%d template(s) cannot render", problems)
			}
			fmt.Fprintf(w, "%d template(s) ok\n", engine.Catalog.Len())
			return nil
		},
	}

	catalogCmd.AddCommand(listCmd, showCmd, checkCmd)
}
