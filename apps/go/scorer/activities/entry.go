package activities

import (
	"errors"

	"roofscore/apps/go/scorer/common"
	"roofscore/apps/go/scorer/roofscore"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
)

// Ctx holds the dependencies shared by the activities.
// This is created because sharing dependencies by context is not recommended
type Ctx struct {
	App *common.App
}

func NewCtx(app *common.App) *Ctx {
	return &Ctx{App: app}
}

// Register registers every activity with the provided worker.
func (aCtx *Ctx) Register(w worker.Worker) {

	w.RegisterActivityWithOptions(aCtx.RecomputeScore, activity.RegisterOptions{
		Name: RecomputeScoreName,
	})

	w.RegisterActivityWithOptions(aCtx.ReleaseScoreLock, activity.RegisterOptions{
		Name: ReleaseScoreLockName,
	})

	w.RegisterActivityWithOptions(aCtx.NotifyScoreUpdated, activity.RegisterOptions{
		Name: NotifyScoreUpdatedName,
	})

	w.RegisterActivityWithOptions(aCtx.ExportScoreCsv, activity.RegisterOptions{
		Name: ExportScoreCsvName,
	})

}

// Error types carried by application errors, matched by the HTTP layer and the workflow.
const (
	ErrTypeInvalidUpdate = "InvalidUpdate"
	ErrTypeNotFound      = "NotFound"
	ErrTypeConflict      = "Conflict"
	ErrTypeUpstream      = "UpstreamUnavailable"
)

// applicationError turns scoring errors into Temporal errors. Rejected input and missing missions
// will not succeed on retry.
func applicationError(msg string, err error) error {
	switch {
	case errors.Is(err, roofscore.ErrInvalidUpdate):
		return temporal.NewNonRetryableApplicationError(msg, ErrTypeInvalidUpdate, err)
	case errors.Is(err, roofscore.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(msg, ErrTypeNotFound, err)
	case errors.Is(err, roofscore.ErrConflict):
		return temporal.NewNonRetryableApplicationError(msg, ErrTypeConflict, err)
	case errors.Is(err, roofscore.ErrUpstreamUnavailable):
		return temporal.NewApplicationErrorWithCause(msg, ErrTypeUpstream, err)
	}
	return temporal.NewApplicationErrorWithCause(msg, "", err)
}
