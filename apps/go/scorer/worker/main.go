package main

import (
	"roofscore/apps/go/scorer/cli"
	"roofscore/apps/go/scorer/x"

	"go.temporal.io/sdk/worker"
)

func main() {
	// Initialize application things like logger/configs/etc
	ac := x.Initialize()
	defer ac.Close()

	if err := cli.RunWorker(ac, worker.InterruptCh()); err != nil {
		ac.Logger.Fatal().Err(err).Msg("worker stopped")
	}
}
