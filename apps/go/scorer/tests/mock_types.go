package tests

import (
	"context"
	"time"

	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/events"
	"roofscore/packages/go/vda"

	"github.com/stretchr/testify/mock"
)

type ScoreStoreMock struct {
	mock.Mock
}

var _ roofscore.ScoreStore = (*ScoreStoreMock)(nil)

func (m *ScoreStoreMock) GetScore(ctx context.Context, missionID string, includeHistory bool) (*types.MissionScore, error) {
	args := m.Called(ctx, missionID, includeHistory)
	score, _ := args.Get(0).(*types.MissionScore)
	return score, args.Error(1)
}

func (m *ScoreStoreMock) CreateScore(ctx context.Context, score *types.MissionScore) error {
	return m.Called(ctx, score).Error(0)
}

func (m *ScoreStoreMock) AppendUpdate(ctx context.Context, missionID string, record types.ScoreUpdateRecord) error {
	return m.Called(ctx, missionID, record).Error(0)
}

func (m *ScoreStoreMock) ClearHistory(ctx context.Context, missionID string) error {
	return m.Called(ctx, missionID).Error(0)
}

func (m *ScoreStoreMock) SetSubmitted(ctx context.Context, missionID string, at time.Time) error {
	return m.Called(ctx, missionID, at).Error(0)
}

func (m *ScoreStoreMock) AcquireUpdateLock(ctx context.Context, missionID, taskID string) error {
	return m.Called(ctx, missionID, taskID).Error(0)
}

func (m *ScoreStoreMock) ReleaseUpdateLock(ctx context.Context, missionID, taskID string) error {
	return m.Called(ctx, missionID, taskID).Error(0)
}

type StatusTrackerMock struct {
	mock.Mock
}

func (m *StatusTrackerMock) Start(ctx context.Context, versionID, userID, userEmail, taskID string) error {
	return m.Called(ctx, versionID, userID, userEmail, taskID).Error(0)
}

func (m *StatusTrackerMock) Finish(ctx context.Context, versionID, taskID string, status types.UpdateStatus) error {
	return m.Called(ctx, versionID, taskID, status).Error(0)
}

func (m *StatusTrackerMock) ListDone(ctx context.Context, userID string) ([]types.UpdateStatusRecord, error) {
	args := m.Called(ctx, userID)
	records, _ := args.Get(0).([]types.UpdateStatusRecord)
	return records, args.Error(1)
}

func (m *StatusTrackerMock) Acknowledge(ctx context.Context, userID string, versionIDs []string) (int64, error) {
	args := m.Called(ctx, userID, versionIDs)
	return args.Get(0).(int64), args.Error(1)
}

type RecomputerMock struct {
	mock.Mock
}

func (m *RecomputerMock) Recompute(ctx context.Context, missionID string, batch types.ScoreUpdateBatch) (*roofscore.UpdateResult, error) {
	args := m.Called(ctx, missionID, batch)
	result, _ := args.Get(0).(*roofscore.UpdateResult)
	return result, args.Error(1)
}

type MissionDetailsMock struct {
	mock.Mock
}

func (m *MissionDetailsMock) MissionDetail(ctx context.Context, missionID string) (*vda.MissionDetail, error) {
	args := m.Called(ctx, missionID)
	detail, _ := args.Get(0).(*vda.MissionDetail)
	return detail, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *NotifierMock) SendScoreUpdated(ctx context.Context, to, versionID, missionName string) error {
	return m.Called(ctx, to, versionID, missionName).Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) PublishScoreUpdated(ctx context.Context, ev events.ScoreUpdated) error {
	return m.Called(ctx, ev).Error(0)
}

type ExporterMock struct {
	mock.Mock
}

func (m *ExporterMock) Export(ctx context.Context, missionID string) ([]string, error) {
	args := m.Called(ctx, missionID)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}
