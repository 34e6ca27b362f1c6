package tests

import (
	"errors"

	"roofscore/apps/go/scorer/activities"
	"roofscore/apps/go/scorer/types"
	"roofscore/apps/go/scorer/workflows"

	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/temporal"
)

type UpdateMissionScoreWorkflowUnitTestSuite struct {
	BaseSuite
}

func updateParams() types.UpdateMissionScoreParams {
	return types.UpdateMissionScoreParams{
		MissionID: "m1",
		TaskID:    "score-update-m1-1",
		UserID:    "u1",
		UserEmail: "pilot@example.com",
		Batch:     singleImageBatch("IMG_A.jpg"),
	}
}

func releaseWith(status types.UpdateStatus) interface{} {
	return mock.MatchedBy(func(p types.ReleaseScoreLockParams) bool {
		return p.MissionID == "m1" && p.TaskID == "score-update-m1-1" && p.Status == status
	})
}

func (s *UpdateMissionScoreWorkflowUnitTestSuite) Test_UpdateMissionScore_Success() {
	s.workflowEnv.OnActivity(activities.RecomputeScoreName, mock.Anything, mock.Anything).
		Return(&types.RecomputeScoreResults{
			AvgScore:    0.75,
			ImageScores: []types.ImageScoreResult{{ImageName: "IMG_A.jpg", Score: 0.5}},
			ImageErrors: []string{},
			Synthesized: []string{},
		}, nil).Once()
	s.workflowEnv.OnActivity(activities.ReleaseScoreLockName, mock.Anything, releaseWith(types.UpdateStatusSuccess)).
		Return(&types.ReleaseScoreLockResults{Released: true}, nil).Once()
	s.workflowEnv.OnActivity(activities.NotifyScoreUpdatedName, mock.Anything, mock.MatchedBy(func(p types.NotifyScoreUpdatedParams) bool {
		return p.UserEmail == "pilot@example.com" && p.AvgScore == 0.75 && p.ImageUpdates == 1
	})).Return(&types.NotifyScoreUpdatedResults{Mailed: true}, nil).Once()
	s.workflowEnv.OnActivity(activities.ExportScoreCsvName, mock.Anything, mock.Anything).
		Return(&types.ExportScoreCsvResults{Keys: []string{"a.csv", "b.csv"}}, nil).Once()

	s.workflowEnv.ExecuteWorkflow(workflows.UpdateMissionScoreName, updateParams())

	s.True(s.workflowEnv.IsWorkflowCompleted())
	s.Require().NoError(s.workflowEnv.GetWorkflowError())

	var result types.UpdateMissionScoreResults
	s.Require().NoError(s.workflowEnv.GetWorkflowResult(&result))
	s.Equal(types.UpdateStatusSuccess, result.Status)
	s.Equal(0.75, result.AvgScore)
	s.True(result.Notified)
	s.Equal([]string{"a.csv", "b.csv"}, result.Exported)
	s.workflowEnv.AssertExpectations(s.T())
}

func (s *UpdateMissionScoreWorkflowUnitTestSuite) Test_UpdateMissionScore_RecomputeFails() {
	s.workflowEnv.OnActivity(activities.RecomputeScoreName, mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("error recomputing mission score", activities.ErrTypeInvalidUpdate, nil)).Once()
	s.workflowEnv.OnActivity(activities.ReleaseScoreLockName, mock.Anything, releaseWith(types.UpdateStatusFailure)).
		Return(&types.ReleaseScoreLockResults{Released: true}, nil).Once()
	s.workflowEnv.OnActivity(activities.NotifyScoreUpdatedName, mock.Anything, mock.Anything).
		Return(&types.NotifyScoreUpdatedResults{}, nil)
	s.workflowEnv.OnActivity(activities.ExportScoreCsvName, mock.Anything, mock.Anything).
		Return(&types.ExportScoreCsvResults{}, nil)

	s.workflowEnv.ExecuteWorkflow(workflows.UpdateMissionScoreName, updateParams())

	s.True(s.workflowEnv.IsWorkflowCompleted())
	err := s.workflowEnv.GetWorkflowError()
	s.Require().Error(err)
	var appErr *temporal.ApplicationError
	s.Require().True(errors.As(err, &appErr))
	s.Equal(activities.ErrTypeInvalidUpdate, appErr.Type())

	s.workflowEnv.AssertNumberOfCalls(s.T(), activities.ReleaseScoreLockName, 1)
	s.workflowEnv.AssertNumberOfCalls(s.T(), activities.NotifyScoreUpdatedName, 0)
	s.workflowEnv.AssertNumberOfCalls(s.T(), activities.ExportScoreCsvName, 0)
}

func (s *UpdateMissionScoreWorkflowUnitTestSuite) Test_UpdateMissionScore_FollowUpsAreBestEffort() {
	s.workflowEnv.OnActivity(activities.RecomputeScoreName, mock.Anything, mock.Anything).
		Return(&types.RecomputeScoreResults{AvgScore: 0.5}, nil).Once()
	s.workflowEnv.OnActivity(activities.ReleaseScoreLockName, mock.Anything, releaseWith(types.UpdateStatusSuccess)).
		Return(&types.ReleaseScoreLockResults{Released: true}, nil).Once()
	s.workflowEnv.OnActivity(activities.NotifyScoreUpdatedName, mock.Anything, mock.Anything).
		Return(nil, errors.New("notification down"))
	s.workflowEnv.OnActivity(activities.ExportScoreCsvName, mock.Anything, mock.Anything).
		Return(nil, errors.New("bucket down"))

	s.workflowEnv.ExecuteWorkflow(workflows.UpdateMissionScoreName, updateParams())

	s.True(s.workflowEnv.IsWorkflowCompleted())
	s.Require().NoError(s.workflowEnv.GetWorkflowError())

	var result types.UpdateMissionScoreResults
	s.Require().NoError(s.workflowEnv.GetWorkflowResult(&result))
	s.Equal(types.UpdateStatusSuccess, result.Status)
	s.False(result.Notified)
	s.Empty(result.Exported)
}

func (s *UpdateMissionScoreWorkflowUnitTestSuite) Test_UpdateMissionScore_ReleaseFails() {
	s.workflowEnv.OnActivity(activities.RecomputeScoreName, mock.Anything, mock.Anything).
		Return(&types.RecomputeScoreResults{AvgScore: 0.5}, nil).Once()
	s.workflowEnv.OnActivity(activities.ReleaseScoreLockName, mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("error releasing mission score lock", activities.ErrTypeNotFound, nil))

	s.workflowEnv.ExecuteWorkflow(workflows.UpdateMissionScoreName, updateParams())

	s.True(s.workflowEnv.IsWorkflowCompleted())
	s.Error(s.workflowEnv.GetWorkflowError())
	s.workflowEnv.AssertNumberOfCalls(s.T(), activities.NotifyScoreUpdatedName, 0)
}
