package workflows

import (
	"fmt"
	"time"

	"roofscore/apps/go/scorer/activities"
	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/logger"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

var UpdateMissionScoreName = "UpdateMissionScore"

// UpdateMissionScore runs one score update batch. The submitter acquired the mission update lock
// for this workflow; it is released whatever the outcome.
// It performs the following activities:
// - Recompute of the mission score
// - Release of the mission update lock, storing the final update status
// - On success, notification of the user and CSV export (best effort)
func (wCtx *Ctx) UpdateMissionScore(ctx workflow.Context, params types.UpdateMissionScoreParams) (*types.UpdateMissionScoreResults, error) {

	l := logger.GetWorkflowLogger(ctx, &logger.Fields{
		"mission_id": params.MissionID,
		"task_id":    params.TaskID,
	})
	l.Debug("Starting Update Mission Score Workflow.")

	result := types.UpdateMissionScoreResults{
		MissionID: params.MissionID,
		Status:    types.UpdateStatusFailure,
	}

	taskID := params.TaskID
	if taskID == "" {
		taskID = workflow.GetInfo(ctx).WorkflowExecution.ID
	}

	// -------------------------------------------------------------------------
	// -------------------- Recompute ------------------------------------------
	// -------------------------------------------------------------------------
	// A recompute appends to the mission history, it is never retried
	recomputeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		ScheduleToStartTimeout: time.Minute * 5,
		StartToCloseTimeout:    time.Duration(wCtx.App.Config.Temporal.WorkflowTimeout) * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
	var recomputed types.RecomputeScoreResults
	err := workflow.ExecuteActivity(
		recomputeCtx,
		activities.RecomputeScoreName,
		types.RecomputeScoreParams{MissionID: params.MissionID, Batch: params.Batch},
	).Get(ctx, &recomputed)
	if err == nil {
		result.Status = types.UpdateStatusSuccess
		result.AvgScore = recomputed.AvgScore
		result.ImageScores = recomputed.ImageScores
		result.ImageErrors = recomputed.ImageErrors
		result.Synthesized = recomputed.Synthesized
	}

	// -------------------------------------------------------------------------
	// -------------------- Release lock ---------------------------------------
	// -------------------------------------------------------------------------
	// Released on a disconnected context so a cancelled workflow does not keep the mission locked
	releaseCtx, _ := workflow.NewDisconnectedContext(ctx)
	releaseCtx = workflow.WithActivityOptions(releaseCtx, workflow.ActivityOptions{
		ScheduleToStartTimeout: time.Minute * 5,
		StartToCloseTimeout:    time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 5,
		},
	})
	releaseErr := workflow.ExecuteActivity(
		releaseCtx,
		activities.ReleaseScoreLockName,
		types.ReleaseScoreLockParams{MissionID: params.MissionID, TaskID: taskID, Status: result.Status},
	).Get(releaseCtx, nil)

	if err != nil {
		l.Error("Mission score update failed.", "error", err)
		return &result, err
	}
	if releaseErr != nil {
		l.Error("Mission score lock not released.", "error", releaseErr)
		return &result, fmt.Errorf("mission score updated but its lock was not released: %w", releaseErr)
	}

	// -------------------------------------------------------------------------
	// -------------------- Notify and export ----------------------------------
	// -------------------------------------------------------------------------
	followCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		ScheduleToStartTimeout: time.Minute * 5,
		StartToCloseTimeout:    time.Minute * 2,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})
	notifyFuture := workflow.ExecuteActivity(followCtx, activities.NotifyScoreUpdatedName, types.NotifyScoreUpdatedParams{
		MissionID:    params.MissionID,
		TaskID:       taskID,
		UserEmail:    params.UserEmail,
		AvgScore:     recomputed.AvgScore,
		ImageUpdates: len(recomputed.ImageScores),
		ImageErrors:  recomputed.ImageErrors,
	})
	exportFuture := workflow.ExecuteActivity(followCtx, activities.ExportScoreCsvName, types.ExportScoreCsvParams{
		MissionID: params.MissionID,
	})

	var notified types.NotifyScoreUpdatedResults
	if e := notifyFuture.Get(ctx, &notified); e != nil {
		l.Warn("Score update notification failed.", "error", e)
	}
	result.Notified = notified.Mailed || notified.Published

	var exported types.ExportScoreCsvResults
	if e := exportFuture.Get(ctx, &exported); e != nil {
		l.Warn("Score export failed.", "error", e)
	}
	result.Exported = exported.Keys

	l.Info("Mission score update finished.", "avg_score", result.AvgScore)
	return &result, nil
}
