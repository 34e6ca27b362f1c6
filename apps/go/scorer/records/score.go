package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/mongodb"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ScoreStore keeps mission scores and their update history in the mission_scores collection.
type ScoreStore struct {
	mongoDB mongodb.MongoDb
	logger  *zerolog.Logger
}

var _ roofscore.ScoreStore = (*ScoreStore)(nil)

func NewScoreStore(mongoDB mongodb.MongoDb, l *zerolog.Logger) *ScoreStore {
	return &ScoreStore{mongoDB: mongoDB, logger: l}
}

func missionFilter(missionID string) bson.D {
	return bson.D{{Key: "mission_id", Value: missionID}}
}

func (s *ScoreStore) collection() mongodb.CollectionAPI {
	return s.mongoDB.GetCollection(types.MissionScoresCollection)
}

func (s *ScoreStore) GetScore(ctx context.Context, missionID string, includeHistory bool) (*types.MissionScore, error) {
	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	opts := options.FindOne()
	if !includeHistory {
		opts.SetProjection(bson.D{{Key: "updates", Value: bson.D{{Key: "$slice", Value: -1}}}})
	}
	score := types.MissionScore{}
	err := s.collection().FindOne(ctxM, missionFilter(missionID), opts).Decode(&score)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("score of mission %s: %w", missionID, roofscore.ErrNotFound)
		}
		s.logger.Error().Err(err).Str("mission_id", missionID).Msg("Could not retrieve mission score from MongoDB.")
		return nil, err
	}
	if score.Updates == nil {
		score.Updates = []types.ScoreUpdateRecord{}
	}
	return &score, nil
}

func (s *ScoreStore) CreateScore(ctx context.Context, score *types.MissionScore) error {
	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	_, err := s.collection().InsertOne(ctxM, score)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("score of mission %s already exists: %w", score.MissionID, roofscore.ErrConflict)
		}
		s.logger.Error().Err(err).Str("mission_id", score.MissionID).Msg("Could not insert mission score in MongoDB.")
		return err
	}
	return nil
}

// updateScore applies an update to the score of the mission, ErrNotFound when there is none.
func (s *ScoreStore) updateScore(ctx context.Context, missionID string, update bson.D) error {
	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	res, err := s.collection().UpdateOne(ctxM, missionFilter(missionID), update)
	if err != nil {
		s.logger.Error().Err(err).Str("mission_id", missionID).Msg("Could not update mission score in MongoDB.")
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("score of mission %s: %w", missionID, roofscore.ErrNotFound)
	}
	return nil
}

func (s *ScoreStore) AppendUpdate(ctx context.Context, missionID string, record types.ScoreUpdateRecord) error {
	return s.updateScore(ctx, missionID, bson.D{{Key: "$push", Value: bson.D{{Key: "updates", Value: record}}}})
}

// ClearHistory empties the update history in the same document update that checks no task holds
// the mission.
func (s *ScoreStore) ClearHistory(ctx context.Context, missionID string) error {
	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	update := bson.D{{Key: "$set", Value: bson.D{{Key: "updates", Value: bson.A{}}}}}
	res, err := s.collection().UpdateOne(ctxM, unlockedFilter(missionID), update)
	if err != nil {
		s.logger.Error().Err(err).Str("mission_id", missionID).Msg("Could not clear mission score history in MongoDB.")
		return err
	}
	if res.MatchedCount == 0 {
		return s.lockedOrMissing(ctxM, missionID)
	}
	return nil
}

func (s *ScoreStore) SetSubmitted(ctx context.Context, missionID string, at time.Time) error {
	return s.updateScore(ctx, missionID, bson.D{{Key: "$set", Value: bson.D{{Key: "submitted_date", Value: at}}}})
}

// AcquireUpdateLock sets task_updating in a single document update, only on a mission no other
// task holds.
func (s *ScoreStore) AcquireUpdateLock(ctx context.Context, missionID, taskID string) error {
	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	update := bson.D{{Key: "$set", Value: bson.D{{Key: "task_updating", Value: taskID}}}}
	opts := options.FindOneAndUpdate().SetProjection(bson.D{{Key: "mission_id", Value: 1}})

	err := s.collection().FindOneAndUpdate(ctxM, unlockedFilter(missionID), update, opts).Err()
	if err == nil {
		s.logger.Debug().Str("mission_id", missionID).Str("task_id", taskID).Msg("score update lock acquired")
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		s.logger.Error().Err(err).Str("mission_id", missionID).Msg("Could not lock mission score in MongoDB.")
		return err
	}

	return s.lockedOrMissing(ctxM, missionID)
}

// ReleaseUpdateLock clears task_updating only while taskID holds it. Releasing a lock held by
// another task, or already free, leaves the mission untouched.
func (s *ScoreStore) ReleaseUpdateLock(ctx context.Context, missionID, taskID string) error {
	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	filter := bson.D{
		{Key: "mission_id", Value: missionID},
		{Key: "task_updating", Value: taskID},
	}
	update := bson.D{{Key: "$unset", Value: bson.D{{Key: "task_updating", Value: ""}}}}
	res, err := s.collection().UpdateOne(ctxM, filter, update)
	if err != nil {
		s.logger.Error().Err(err).Str("mission_id", missionID).Msg("Could not release mission score lock in MongoDB.")
		return err
	}
	if res.MatchedCount == 0 {
		count, err := s.collection().CountDocuments(ctxM, missionFilter(missionID))
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("score of mission %s: %w", missionID, roofscore.ErrNotFound)
		}
		s.logger.Warn().Str("mission_id", missionID).Str("task_id", taskID).Msg("score update lock not held by task, left as is")
		return nil
	}
	s.logger.Debug().Str("mission_id", missionID).Str("task_id", taskID).Msg("score update lock released")
	return nil
}

// unlockedFilter matches the mission while no task holds its update lock.
func unlockedFilter(missionID string) bson.D {
	return bson.D{
		{Key: "mission_id", Value: missionID},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "task_updating", Value: nil}},
			bson.D{{Key: "task_updating", Value: ""}},
		}},
	}
}

// lockedOrMissing tells why an update guarded by unlockedFilter matched nothing.
func (s *ScoreStore) lockedOrMissing(ctx context.Context, missionID string) error {
	count, err := s.collection().CountDocuments(ctx, missionFilter(missionID))
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("score of mission %s: %w", missionID, roofscore.ErrNotFound)
	}
	return fmt.Errorf("mission %s: %w", missionID, roofscore.ErrConflict)
}
