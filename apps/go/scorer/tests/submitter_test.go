package tests

import (
	"errors"
	"strings"
	"time"

	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/tasks"
	"roofscore/apps/go/scorer/types"
	"roofscore/apps/go/scorer/workflows"

	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/client"
)

type SubmitterUnitTestSuite struct {
	BaseSuite
	submitter *tasks.Submitter
	conflicts int
}

func (s *SubmitterUnitTestSuite) SetupTest() {
	s.conflicts = 0
}

func (s *SubmitterUnitTestSuite) BeforeTest(suiteName, testName string) {
	s.BaseSuite.BeforeTest(suiteName, testName)
	s.submitter = tasks.NewSubmitter(
		s.app.TemporalClient,
		s.scores,
		s.status,
		s.app.Config.Temporal,
		conflictCounter{&s.conflicts},
		s.app.Logger,
	)
}

type conflictCounter struct{ n *int }

func (conflictCounter) ObserveRecompute(_ time.Duration, _ int, _ error) {}
func (conflictCounter) ObserveImageError(string)                         {}
func (c conflictCounter) ObserveLockConflict()                           { *c.n++ }

func isTaskID(missionID string) interface{} {
	return mock.MatchedBy(func(id string) bool {
		return strings.HasPrefix(id, "score-update-"+missionID+"-")
	})
}

func (s *SubmitterUnitTestSuite) Test_Submit_StartsWorkflow() {
	tc := s.GetTemporalClientMock()
	s.scores.On("AcquireUpdateLock", mock.Anything, "m1", isTaskID("m1")).Return(nil).Once()
	s.status.On("Start", mock.Anything, "m1", "u1", "pilot@example.com", isTaskID("m1")).Return(nil).Once()
	tc.On("ExecuteWorkflow", mock.Anything, mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
		return strings.HasPrefix(o.ID, "score-update-m1-") && o.TaskQueue == types.DefaultTemporalTaskQueue
	}), workflows.UpdateMissionScoreName, mock.MatchedBy(func(args []interface{}) bool {
		p, ok := args[0].(types.UpdateMissionScoreParams)
		return ok && p.MissionID == "m1" && p.UserEmail == "pilot@example.com" && strings.HasPrefix(p.TaskID, "score-update-m1-")
	})).Return(&FakeWorkflowRun{}, nil).Once()

	handle, err := s.submitter.Submit(s.T().Context(), "m1", "u1", "pilot@example.com", singleImageBatch("IMG_A.jpg"))
	s.Require().NoError(err)
	s.True(strings.HasPrefix(handle.TaskID, "score-update-m1-"))
	s.Equal(types.UpdateStatusPending, handle.Status)
	s.scores.AssertExpectations(s.T())
	s.status.AssertExpectations(s.T())
	tc.AssertExpectations(s.T())
}

func (s *SubmitterUnitTestSuite) Test_Submit_RejectsEmptyBatch() {
	_, err := s.submitter.Submit(s.T().Context(), "m1", "u1", "", types.ScoreUpdateBatch{})
	s.ErrorIs(err, roofscore.ErrInvalidUpdate)
	s.scores.AssertNotCalled(s.T(), "AcquireUpdateLock", mock.Anything, mock.Anything, mock.Anything)
}

func (s *SubmitterUnitTestSuite) Test_Submit_MissionUpdating() {
	s.scores.On("AcquireUpdateLock", mock.Anything, "m1", mock.Anything).Return(roofscore.ErrConflict).Once()

	_, err := s.submitter.Submit(s.T().Context(), "m1", "u1", "", singleImageBatch("IMG_A.jpg"))
	s.ErrorIs(err, roofscore.ErrConflict)
	s.Equal(1, s.conflicts)
	s.GetTemporalClientMock().AssertNotCalled(s.T(), "ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *SubmitterUnitTestSuite) Test_Submit_WorkflowStartFails() {
	tc := s.GetTemporalClientMock()
	s.scores.On("AcquireUpdateLock", mock.Anything, "m1", mock.Anything).Return(nil).Once()
	s.status.On("Start", mock.Anything, "m1", "u1", "", mock.Anything).Return(nil).Once()
	tc.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("temporal unavailable")).Once()
	s.scores.On("ReleaseUpdateLock", mock.Anything, "m1", isTaskID("m1")).Return(nil).Once()
	s.status.On("Finish", mock.Anything, "m1", isTaskID("m1"), types.UpdateStatusFailure).Return(nil).Once()

	_, err := s.submitter.Submit(s.T().Context(), "m1", "u1", "", singleImageBatch("IMG_A.jpg"))
	s.ErrorIs(err, roofscore.ErrUpstreamUnavailable)
	s.scores.AssertExpectations(s.T())
	s.status.AssertExpectations(s.T())
}
