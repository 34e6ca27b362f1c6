package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roofscore/apps/go/scorer/common"
	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"
	"roofscore/apps/go/scorer/workflows"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
)

// LockStore holds the per mission update lock.
type LockStore interface {
	AcquireUpdateLock(ctx context.Context, missionID, taskID string) error
	ReleaseUpdateLock(ctx context.Context, missionID, taskID string) error
}

// TaskHandle identifies a submitted score update.
type TaskHandle struct {
	TaskID string             `json:"task_id"`
	Status types.UpdateStatus `json:"status"`
}

// Submitter starts score updates on the task queue without waiting for them.
type Submitter struct {
	temporal client.Client
	scores   LockStore
	status   common.StatusTracker
	config   *types.TemporalConfig
	observer roofscore.Observer
	newID    func() string
	logger   *zerolog.Logger
}

func NewSubmitter(tc client.Client, scores LockStore, status common.StatusTracker, cfg *types.TemporalConfig, observer roofscore.Observer, l *zerolog.Logger) *Submitter {
	return &Submitter{
		temporal: tc,
		scores:   scores,
		status:   status,
		config:   cfg,
		observer: observer,
		newID:    uuid.NewString,
		logger:   l,
	}
}

// TaskID is the workflow id of a score update.
func TaskID(missionID, id string) string {
	return fmt.Sprintf("score-update-%s-%s", missionID, id)
}

// Submit validates the batch, locks the mission for the new task and starts the update workflow.
// It returns ErrConflict while another update runs on the mission.
func (s *Submitter) Submit(ctx context.Context, missionID, userID, userEmail string, batch types.ScoreUpdateBatch) (*TaskHandle, error) {
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", roofscore.ErrInvalidUpdate, err)
	}

	taskID := TaskID(missionID, s.newID())
	l := s.logger.With().Str("mission_id", missionID).Str("task_id", taskID).Logger()

	if err := s.scores.AcquireUpdateLock(ctx, missionID, taskID); err != nil {
		if errors.Is(err, roofscore.ErrConflict) && s.observer != nil {
			s.observer.ObserveLockConflict()
		}
		return nil, err
	}

	if s.status != nil {
		if err := s.status.Start(ctx, missionID, userID, userEmail, taskID); err != nil {
			l.Warn().Err(err).Msg("Could not store pending update status.")
		}
	}

	options := client.StartWorkflowOptions{
		ID:                                       taskID,
		TaskQueue:                                s.config.TaskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowTaskTimeout:                      120 * time.Second,
		WorkflowExecutionTimeout:                 time.Duration(s.config.WorkflowTimeout)*time.Second + 10*time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	params := types.UpdateMissionScoreParams{
		MissionID: missionID,
		TaskID:    taskID,
		UserID:    userID,
		UserEmail: userEmail,
		Batch:     batch,
	}
	// Do not wait for a result by not calling .Get() on the returned run
	if _, err := s.temporal.ExecuteWorkflow(ctx, options, workflows.UpdateMissionScoreName, params); err != nil {
		l.Error().Err(err).Msg("Could not start score update workflow.")
		s.abort(missionID, taskID, &l)
		return nil, fmt.Errorf("%w: starting score update: %w", roofscore.ErrUpstreamUnavailable, err)
	}

	l.Info().Int("image_updates", len(batch.ImageUpdates)).Msg("Score update submitted.")
	return &TaskHandle{TaskID: taskID, Status: types.UpdateStatusPending}, nil
}

func (s *Submitter) abort(missionID, taskID string, l *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.scores.ReleaseUpdateLock(ctx, missionID, taskID); err != nil {
		l.Error().Err(err).Msg("Could not release mission score lock.")
	}
	if s.status != nil {
		if err := s.status.Finish(ctx, missionID, taskID, types.UpdateStatusFailure); err != nil {
			l.Error().Err(err).Msg("Could not store update status.")
		}
	}
}
