package workflows

import (
	"roofscore/apps/go/scorer/common"

	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// Ctx holds the dependencies shared by the workflows.
// This is created because sharing dependencies by context is not recommended
type Ctx struct {
	App *common.App
}

func NewCtx(app *common.App) *Ctx {
	return &Ctx{App: app}
}

// Register registers the workflows with the provided worker.
func (wCtx *Ctx) Register(w worker.Worker) {

	// Score update of one mission version, containing the logic of:
	// - Recompute of the update batch
	// - Release of the mission update lock
	// - User notification and CSV export
	w.RegisterWorkflowWithOptions(wCtx.UpdateMissionScore, workflow.RegisterOptions{
		Name: UpdateMissionScoreName,
	})
}
