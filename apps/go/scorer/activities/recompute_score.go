package activities

import (
	"context"

	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/logger"
)

var RecomputeScoreName = "recompute_score"

// RecomputeScore scores an update batch and appends the record to the mission history. The
// mission update lock is held by the workflow that runs it.
func (aCtx *Ctx) RecomputeScore(ctx context.Context, params types.RecomputeScoreParams) (*types.RecomputeScoreResults, error) {

	logger.GetActivityLogger(ctx, &logger.Fields{"mission_id": params.MissionID}).
		Debug("Recomputing mission score.", "image_updates", len(params.Batch.ImageUpdates))

	l := aCtx.App.Logger

	result, err := aCtx.App.Engine.Recompute(ctx, params.MissionID, params.Batch)
	if err != nil {
		l.Error().Err(err).Str("mission_id", params.MissionID).Msg("Could not recompute mission score.")
		return nil, applicationError("error recomputing mission score", err)
	}

	out := types.RecomputeScoreResults{
		AvgScore:    result.AvgScore,
		ImageScores: make([]types.ImageScoreResult, len(result.ImageUpdates)),
		ImageErrors: make([]string, len(result.ImageErrors)),
		Synthesized: result.Synthesized,
	}
	for i, u := range result.ImageUpdates {
		out.ImageScores[i] = types.ImageScoreResult{ImageName: u.ImageName, Score: u.Score}
	}
	for i, e := range result.ImageErrors {
		out.ImageErrors[i] = e.Error()
	}
	return &out, nil
}
