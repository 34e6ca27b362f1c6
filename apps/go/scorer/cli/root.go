package cli

import (
	"os"

	"roofscore/apps/go/scorer/common"
	"roofscore/apps/go/scorer/x"

	"github.com/spf13/cobra"
)

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	// initialize builds the app, replaced in tests.
	initialize func() *common.App
}

// RootCommand creates the roofscore command and its sub-commands.
func RootCommand() *cobra.Command {
	opts := &Options{initialize: x.Initialize}

	rootCmd := &cobra.Command{
		Use:           "roofscore",
		Short:         "Roof damage scoring service",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.ConfigPath != "" {
				return os.Setenv("CONFIG_PATH", opts.ConfigPath)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the config file, overrides CONFIG_PATH")

	rootCmd.AddCommand(
		WorkerCommand(opts),
		ServeCommand(opts),
		ScoreCommand(),
		RevertCommand(opts),
		ExportCommand(opts),
	)
	return rootCmd
}
