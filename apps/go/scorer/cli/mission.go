package cli

import (
	"errors"
	"fmt"

	"roofscore/apps/go/scorer/roofscore"

	"github.com/spf13/cobra"
)

func RevertCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "revert [mission_id]",
		Short: "Drop the score update history of a mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac := opts.initialize()
			defer ac.Close()
			err := ac.Service.Revert(cmd.Context(), args[0])
			if errors.Is(err, roofscore.ErrNothingToRevert) {
				fmt.Fprintf(cmd.OutOrStdout(), "mission %s has no score update to revert\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mission %s reverted\n", args[0])
			return nil
		},
	}
}

func ExportCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "export [mission_id]",
		Short: "Write the score CSV files of a mission to the storage bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ac := opts.initialize()
			defer ac.Close()
			if ac.Exporter == nil {
				return errors.New("no storage bucket configured")
			}
			keys, err := ac.Exporter.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
