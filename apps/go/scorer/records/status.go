package records

import (
	"context"
	"time"

	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/mongodb"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StatusStore keeps the update status shown to the user who submitted a score update.
type StatusStore struct {
	mongoDB mongodb.MongoDb
	now     func() time.Time
	logger  *zerolog.Logger
}

func NewStatusStore(mongoDB mongodb.MongoDb, l *zerolog.Logger) *StatusStore {
	return &StatusStore{mongoDB: mongoDB, now: time.Now, logger: l}
}

func (s *StatusStore) collection() mongodb.CollectionAPI {
	return s.mongoDB.GetCollection(types.UpdateScoreStatusCollection)
}

// Start records a submitted update, replacing the status of any previous update of the version.
func (s *StatusStore) Start(ctx context.Context, versionID, userID, userEmail, taskID string) error {
	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	record := types.UpdateStatusRecord{
		VersionID:    versionID,
		UserID:       userID,
		UserEmail:    userEmail,
		TaskID:       taskID,
		UpdateStatus: types.UpdateStatusPending,
		UpdatedAt:    s.now().UTC(),
	}
	filter := bson.D{{Key: "version_id", Value: versionID}}
	update := bson.D{{Key: "$set", Value: record}}
	_, err := s.collection().UpdateOne(ctxM, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		s.logger.Error().Err(err).Str("version_id", versionID).Msg("Could not store update status in MongoDB.")
	}
	return err
}

// Finish sets the final status of the update run by the task.
func (s *StatusStore) Finish(ctx context.Context, versionID, taskID string, status types.UpdateStatus) error {
	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	filter := bson.D{
		{Key: "version_id", Value: versionID},
		{Key: "task_id", Value: taskID},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "update_status", Value: status},
		{Key: "updated_at", Value: s.now().UTC()},
	}}}
	res, err := s.collection().UpdateMany(ctxM, filter, update)
	if err != nil {
		s.logger.Error().Err(err).Str("version_id", versionID).Msg("Could not update status in MongoDB.")
		return err
	}
	if res.MatchedCount == 0 {
		s.logger.Warn().Str("version_id", versionID).Str("task_id", taskID).Msg("update status superseded or acknowledged")
	}
	return nil
}

// ListDone returns the finished updates the user was not notified of yet.
func (s *StatusStore) ListDone(ctx context.Context, userID string) ([]types.UpdateStatusRecord, error) {
	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "update_status", Value: bson.D{{Key: "$in", Value: bson.A{types.UpdateStatusSuccess, types.UpdateStatusFailure}}}},
	}
	cursor, err := s.collection().Find(ctxM, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Could not list update status from MongoDB.")
		return nil, err
	}
	defer cursor.Close(ctxM)

	records := make([]types.UpdateStatusRecord, 0)
	if err = cursor.All(ctxM, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Acknowledge drops the status of the given versions for the user.
func (s *StatusStore) Acknowledge(ctx context.Context, userID string, versionIDs []string) (int64, error) {
	ctxM, cancel := context.WithTimeout(ctx, OperationTimeout)
	defer cancel()

	filter := bson.D{
		{Key: "version_id", Value: bson.D{{Key: "$in", Value: versionIDs}}},
		{Key: "user_id", Value: userID},
	}
	res, err := s.collection().DeleteMany(ctxM, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Could not delete update status from MongoDB.")
		return 0, err
	}
	return res.DeletedCount, nil
}
