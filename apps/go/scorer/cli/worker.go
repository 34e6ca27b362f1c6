package cli

import (
	"roofscore/apps/go/scorer/activities"
	"roofscore/apps/go/scorer/common"
	"roofscore/apps/go/scorer/workflows"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"
)

func WorkerCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the Temporal worker recomputing mission scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ac := opts.initialize()
			defer ac.Close()
			return RunWorker(ac, worker.InterruptCh())
		},
	}
}

// RunWorker registers the score update workflow and its activities on the app task queue and
// polls it until interruptCh is closed.
func RunWorker(ac *common.App, interruptCh <-chan interface{}) error {
	w := worker.New(ac.TemporalClient, ac.Config.Temporal.TaskQueue, worker.Options{})

	workflows.NewCtx(ac).Register(w)
	activities.NewCtx(ac).Register(w)

	if err := w.Run(interruptCh); err != nil {
		ac.Logger.Error().Err(err).Msg("unable to start the Worker Process")
		return err
	}
	return nil
}
