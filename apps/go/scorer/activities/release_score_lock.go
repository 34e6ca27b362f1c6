package activities

import (
	"context"

	"roofscore/apps/go/scorer/types"
)

var ReleaseScoreLockName = "release_score_lock"

// ReleaseScoreLock frees the mission for the next update and records how the task ended for the
// user who submitted it.
func (aCtx *Ctx) ReleaseScoreLock(ctx context.Context, params types.ReleaseScoreLockParams) (*types.ReleaseScoreLockResults, error) {

	l := aCtx.App.Logger.With().
		Str("mission_id", params.MissionID).
		Str("task_id", params.TaskID).
		Str("status", string(params.Status)).
		Logger()

	if err := aCtx.App.Scores.ReleaseUpdateLock(ctx, params.MissionID, params.TaskID); err != nil {
		l.Error().Err(err).Msg("Could not release mission score lock.")
		return nil, applicationError("error releasing mission score lock", err)
	}

	if aCtx.App.Status != nil {
		if err := aCtx.App.Status.Finish(ctx, params.MissionID, params.TaskID, params.Status); err != nil {
			// the mission is already free, a status left pending only affects the notification list
			l.Error().Err(err).Msg("Could not store update status.")
		}
	}

	l.Debug().Msg("Mission score lock released.")
	return &types.ReleaseScoreLockResults{Released: true}, nil
}
