package activities

import (
	"context"
	"time"

	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/events"
)

var NotifyScoreUpdatedName = "notify_score_updated"

// NotifyScoreUpdated mails the submitting user and publishes the score event. Failures are logged
// and never fail the activity.
func (aCtx *Ctx) NotifyScoreUpdated(ctx context.Context, params types.NotifyScoreUpdatedParams) (*types.NotifyScoreUpdatedResults, error) {

	l := aCtx.App.Logger.With().Str("mission_id", params.MissionID).Str("task_id", params.TaskID).Logger()
	result := types.NotifyScoreUpdatedResults{}

	if aCtx.App.Mailer != nil && aCtx.App.Mailer.Enabled() && params.UserEmail != "" {
		name := aCtx.App.MissionName(ctx, params.MissionID)
		if err := aCtx.App.Mailer.SendScoreUpdated(ctx, params.UserEmail, params.MissionID, name); err != nil {
			l.Error().Err(err).Str("to", params.UserEmail).Msg("Could not send score updated mail.")
		} else {
			result.Mailed = true
		}
	}

	if aCtx.App.Events != nil {
		ev := events.ScoreUpdated{
			MissionID:    params.MissionID,
			TaskID:       params.TaskID,
			AvgScore:     params.AvgScore,
			ImageUpdates: params.ImageUpdates,
			ImageErrors:  params.ImageErrors,
			Time:         time.Now().UTC(),
		}
		if err := aCtx.App.Events.PublishScoreUpdated(ctx, ev); err != nil {
			l.Error().Err(err).Msg("Could not publish score updated event.")
		} else {
			result.Published = true
		}
	}

	return &result, nil
}
