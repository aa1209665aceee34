package cmd

import (
	"fmt"

	"github.com/cozy-creator/meme-engine/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the memegen home and config files",
}

func init() {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the home directory with a default config.yaml and .env",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustGetConfig().Home
			written, err := config.WriteHomeTemplates(home)
			if err != nil {
				return err
			}

			if len(written) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already initialized\n", home)
				return nil
			}
			for _, path := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			}
			return nil
		},
	}

	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Print the default config.yaml",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.GetConfigTemplate())
		},
	}

	configCmd.AddCommand(initCmd, templateCmd)
}
