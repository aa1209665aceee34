package cmd

import (
	"fmt"
	"os"

	"github.com/cozy-creator/meme-engine/internal/config"
	"github.com/cozy-creator/meme-engine/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Cmd = &cobra.Command{
	Use:   "memegen",
	Short: "Meme template engine",
	Long:  "Turns a description or an upstream meme concept into a rendered meme, using a catalog of templates or a plain caption over a background image",
	// Runs before this command and any subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}

		if err := config.LoadEnvAndConfigFiles(); err != nil {
			return err
		}

		if _, err := logger.InitLogger(config.MustGetConfig()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pflags := Cmd.PersistentFlags()

	pflags.String("home", "", "Path to the memegen home directory")
	pflags.String("config-file", "", "Path to the config file")
	pflags.String("env-file", "", "Path to the env file")
	pflags.String("environment", "", "Environment configuration (dev, test, prod)")
	pflags.String("templates-dir", "", "Template catalog directory")
	pflags.String("output-format", "", "Output image format: 'png' or 'jpeg'")
	pflags.String("filesystem-type", "", "Where outputs are stored: 'local' or 's3'")

	viper.BindPFlag("home", pflags.Lookup("home"))
	viper.BindPFlag("config_file", pflags.Lookup("config-file"))
	viper.BindPFlag("env_file", pflags.Lookup("env-file"))
	viper.BindPFlag("environment", pflags.Lookup("environment"))
	viper.BindPFlag("templates_dir", pflags.Lookup("templates-dir"))
	viper.BindPFlag("output_format", pflags.Lookup("output-format"))
	viper.BindPFlag("filesystem_type", pflags.Lookup("filesystem-type"))

	Cmd.AddCommand(renderCmd, captionCmd, matchCmd, extractCmd, catalogCmd, batchCmd, configCmd)
	Cmd.CompletionOptions.HiddenDefaultCmd = true
}
