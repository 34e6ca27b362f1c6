package tests

import (
	"errors"
	"fmt"

	"roofscore/apps/go/scorer/activities"
	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/events"
	"roofscore/packages/go/geometry"
	"roofscore/packages/go/vda"

	"github.com/stretchr/testify/mock"
	"go.temporal.io/sdk/temporal"
)

func singleImageBatch(name string) types.ScoreUpdateBatch {
	return types.ScoreUpdateBatch{
		ImageUpdates: []types.ImageScoreUpdate{{
			ImageName: name,
			Defects:   types.Defects{Polygons: []types.DefectPolygon{}},
		}},
	}
}

func batchOf(name string) interface{} {
	return mock.MatchedBy(func(b types.ScoreUpdateBatch) bool {
		return len(b.ImageUpdates) == 1 && b.ImageUpdates[0].ImageName == name
	})
}

//------------------------------------------------------------------------------
// Recompute Score
//------------------------------------------------------------------------------

type RecomputeScoreUnitTestSuite struct {
	BaseSuite
}

func (s *RecomputeScoreUnitTestSuite) Test_RecomputeScore_Results() {
	s.engine.On("Recompute", mock.Anything, "m1", batchOf("IMG_A.jpg")).Return(&roofscore.UpdateResult{
		MissionID:    "m1",
		AvgScore:     0.75,
		ImageUpdates: []types.ImageScoreUpdate{{ImageName: "IMG_A.jpg", Score: 0.5}},
		ImageErrors:  roofscore.ImageErrors{{ImageName: "IMG_B.jpg", Err: geometry.ErrDegenerate}},
		Synthesized:  []string{"IMG_A.jpg"},
	}, nil).Once()

	val, err := s.activityEnv.ExecuteActivity(activities.RecomputeScoreName, types.RecomputeScoreParams{
		MissionID: "m1",
		Batch:     singleImageBatch("IMG_A.jpg"),
	})
	s.Require().NoError(err)

	var result types.RecomputeScoreResults
	s.Require().NoError(val.Get(&result))
	s.Equal(0.75, result.AvgScore)
	s.Equal([]types.ImageScoreResult{{ImageName: "IMG_A.jpg", Score: 0.5}}, result.ImageScores)
	s.Require().Len(result.ImageErrors, 1)
	s.Contains(result.ImageErrors[0], "IMG_B.jpg")
	s.Equal([]string{"IMG_A.jpg"}, result.Synthesized)
	s.engine.AssertExpectations(s.T())
}

func (s *RecomputeScoreUnitTestSuite) Test_RecomputeScore_NonRetryableErrors() {
	tests := []struct {
		name      string
		err       error
		errType   string
		retryable bool
	}{
		{"invalid update", fmt.Errorf("%w: no image update could be scored", roofscore.ErrInvalidUpdate), activities.ErrTypeInvalidUpdate, false},
		{"unknown mission", fmt.Errorf("score of mission m1: %w", roofscore.ErrNotFound), activities.ErrTypeNotFound, false},
		{"database down", errors.New("server selection timeout"), "", true},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.engine.ExpectedCalls = nil
			s.engine.On("Recompute", mock.Anything, "m1", mock.Anything).Return(nil, tt.err).Once()

			_, err := s.activityEnv.ExecuteActivity(activities.RecomputeScoreName, types.RecomputeScoreParams{
				MissionID: "m1",
				Batch:     singleImageBatch("IMG_A.jpg"),
			})
			s.Require().Error(err)

			var appErr *temporal.ApplicationError
			s.Require().True(errors.As(err, &appErr))
			s.Equal(tt.errType, appErr.Type())
			s.Equal(!tt.retryable, appErr.NonRetryable())
		})
	}
}

//------------------------------------------------------------------------------
// Release Score Lock
//------------------------------------------------------------------------------

type ReleaseScoreLockUnitTestSuite struct {
	BaseSuite
}

func (s *ReleaseScoreLockUnitTestSuite) Test_ReleaseScoreLock_StoresStatus() {
	s.scores.On("ReleaseUpdateLock", mock.Anything, "m1", "t1").Return(nil).Once()
	s.status.On("Finish", mock.Anything, "m1", "t1", types.UpdateStatusSuccess).Return(nil).Once()

	val, err := s.activityEnv.ExecuteActivity(activities.ReleaseScoreLockName, types.ReleaseScoreLockParams{
		MissionID: "m1",
		TaskID:    "t1",
		Status:    types.UpdateStatusSuccess,
	})
	s.Require().NoError(err)

	var result types.ReleaseScoreLockResults
	s.Require().NoError(val.Get(&result))
	s.True(result.Released)
	s.scores.AssertExpectations(s.T())
	s.status.AssertExpectations(s.T())
}

func (s *ReleaseScoreLockUnitTestSuite) Test_ReleaseScoreLock_StatusErrorIsLogged() {
	s.scores.On("ReleaseUpdateLock", mock.Anything, "m1", "t1").Return(nil).Once()
	s.status.On("Finish", mock.Anything, "m1", "t1", types.UpdateStatusFailure).Return(errors.New("write conflict")).Once()

	_, err := s.activityEnv.ExecuteActivity(activities.ReleaseScoreLockName, types.ReleaseScoreLockParams{
		MissionID: "m1",
		TaskID:    "t1",
		Status:    types.UpdateStatusFailure,
	})
	s.NoError(err)
}

func (s *ReleaseScoreLockUnitTestSuite) Test_ReleaseScoreLock_Fails() {
	s.scores.On("ReleaseUpdateLock", mock.Anything, "m1", "t1").Return(errors.New("server selection timeout")).Once()

	_, err := s.activityEnv.ExecuteActivity(activities.ReleaseScoreLockName, types.ReleaseScoreLockParams{
		MissionID: "m1",
		TaskID:    "t1",
		Status:    types.UpdateStatusSuccess,
	})
	s.Error(err)
	s.status.AssertNotCalled(s.T(), "Finish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

//------------------------------------------------------------------------------
// Notify Score Updated
//------------------------------------------------------------------------------

type NotifyScoreUpdatedUnitTestSuite struct {
	BaseSuite
}

func notifyParams() types.NotifyScoreUpdatedParams {
	return types.NotifyScoreUpdatedParams{
		MissionID:    "m1",
		TaskID:       "t1",
		UserEmail:    "pilot@example.com",
		AvgScore:     0.75,
		ImageUpdates: 2,
		ImageErrors:  []string{},
	}
}

func (s *NotifyScoreUpdatedUnitTestSuite) Test_NotifyScoreUpdated_MailAndEvent() {
	s.mailer.On("Enabled").Return(true)
	s.missions.On("MissionDetail", mock.Anything, "m1").Return(&vda.MissionDetail{MissionName: "Warehouse 7"}, nil).Once()
	s.mailer.On("SendScoreUpdated", mock.Anything, "pilot@example.com", "m1", "Warehouse 7").Return(nil).Once()
	s.events.On("PublishScoreUpdated", mock.Anything, mock.MatchedBy(func(ev events.ScoreUpdated) bool {
		return ev.MissionID == "m1" && ev.TaskID == "t1" && ev.AvgScore == 0.75 && ev.ImageUpdates == 2
	})).Return(nil).Once()

	val, err := s.activityEnv.ExecuteActivity(activities.NotifyScoreUpdatedName, notifyParams())
	s.Require().NoError(err)

	var result types.NotifyScoreUpdatedResults
	s.Require().NoError(val.Get(&result))
	s.True(result.Mailed)
	s.True(result.Published)
	s.mailer.AssertExpectations(s.T())
	s.events.AssertExpectations(s.T())
}

func (s *NotifyScoreUpdatedUnitTestSuite) Test_NotifyScoreUpdated_MissionDetailFallback() {
	s.mailer.On("Enabled").Return(true)
	s.missions.On("MissionDetail", mock.Anything, "m1").Return(nil, vda.ErrRequestFailed).Once()
	s.mailer.On("SendScoreUpdated", mock.Anything, "pilot@example.com", "m1", "m1").Return(nil).Once()
	s.events.On("PublishScoreUpdated", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := s.activityEnv.ExecuteActivity(activities.NotifyScoreUpdatedName, notifyParams())
	s.Require().NoError(err)
	s.mailer.AssertExpectations(s.T())
}

func (s *NotifyScoreUpdatedUnitTestSuite) Test_NotifyScoreUpdated_FailuresAreLogged() {
	s.mailer.On("Enabled").Return(true)
	s.missions.On("MissionDetail", mock.Anything, "m1").Return(&vda.MissionDetail{MissionName: "Warehouse 7"}, nil)
	s.mailer.On("SendScoreUpdated", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
	s.events.On("PublishScoreUpdated", mock.Anything, mock.Anything).Return(events.ErrNotConnected).Once()

	val, err := s.activityEnv.ExecuteActivity(activities.NotifyScoreUpdatedName, notifyParams())
	s.Require().NoError(err)

	var result types.NotifyScoreUpdatedResults
	s.Require().NoError(val.Get(&result))
	s.False(result.Mailed)
	s.False(result.Published)
}

func (s *NotifyScoreUpdatedUnitTestSuite) Test_NotifyScoreUpdated_NoRecipient() {
	s.mailer.On("Enabled").Return(true)
	s.events.On("PublishScoreUpdated", mock.Anything, mock.Anything).Return(nil).Once()

	params := notifyParams()
	params.UserEmail = ""
	val, err := s.activityEnv.ExecuteActivity(activities.NotifyScoreUpdatedName, params)
	s.Require().NoError(err)

	var result types.NotifyScoreUpdatedResults
	s.Require().NoError(val.Get(&result))
	s.False(result.Mailed)
	s.True(result.Published)
	s.mailer.AssertNotCalled(s.T(), "SendScoreUpdated", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.missions.AssertNotCalled(s.T(), "MissionDetail", mock.Anything, mock.Anything)
}

//------------------------------------------------------------------------------
// Export Score CSV
//------------------------------------------------------------------------------

type ExportScoreCsvUnitTestSuite struct {
	BaseSuite
}

func (s *ExportScoreCsvUnitTestSuite) Test_ExportScoreCsv_Uploads() {
	keys := []string{
		"RC1/m1/structure1/extras/CSV_all/RC1_updated.csv",
		"RC1/m1/structure1/extras/CSV_all/RC1_score_updated.csv",
	}
	s.exporter.On("Export", mock.Anything, "m1").Return(keys, nil).Once()

	val, err := s.activityEnv.ExecuteActivity(activities.ExportScoreCsvName, types.ExportScoreCsvParams{MissionID: "m1"})
	s.Require().NoError(err)

	var result types.ExportScoreCsvResults
	s.Require().NoError(val.Get(&result))
	s.Equal(keys, result.Keys)
}

func (s *ExportScoreCsvUnitTestSuite) Test_ExportScoreCsv_NotConfigured() {
	s.app.Exporter = nil

	val, err := s.activityEnv.ExecuteActivity(activities.ExportScoreCsvName, types.ExportScoreCsvParams{MissionID: "m1"})
	s.Require().NoError(err)

	var result types.ExportScoreCsvResults
	s.Require().NoError(val.Get(&result))
	s.Empty(result.Keys)
}

func (s *ExportScoreCsvUnitTestSuite) Test_ExportScoreCsv_UploadFails() {
	s.exporter.On("Export", mock.Anything, "m1").Return(nil, errors.New("403 forbidden")).Once()

	_, err := s.activityEnv.ExecuteActivity(activities.ExportScoreCsvName, types.ExportScoreCsvParams{MissionID: "m1"})
	s.Error(err)
}
