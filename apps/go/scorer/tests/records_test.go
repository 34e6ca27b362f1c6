package tests

import (
	"errors"
	"regexp"
	"time"

	"roofscore/apps/go/scorer/records"
	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/mongodb"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// define a test suite struct
type RecordsUnitTestSuite struct {
	BaseSuite
	collection *mongodb.MockCollection
}

func (s *RecordsUnitTestSuite) BeforeTest(suiteName, testName string) {
	s.BaseSuite.BeforeTest(suiteName, testName)
	s.collection = &mongodb.MockCollection{}
	s.GetMongoClientMock().On("GetCollection", mock.Anything).Return(s.collection)
}

func single(doc interface{}) *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func cursorOf(docs ...interface{}) *mongo.Cursor {
	c, err := mongo.NewCursorFromDocuments(docs, nil, nil)
	if err != nil {
		panic(err)
	}
	return c
}

func filterValue(filter interface{}, key string) interface{} {
	for _, e := range filter.(bson.D) {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

func (s *RecordsUnitTestSuite) Test_ImageStore_StemFilter() {
	store := records.NewImageStore(s.app.Mongodb, s.app.Logger)
	var pattern string
	s.collection.On("FindOne", mock.Anything, mock.MatchedBy(func(f interface{}) bool {
		re, ok := filterValue(f, "img_name").(primitive.Regex)
		pattern = re.Pattern
		return ok && filterValue(f, "mission_id") == "m1"
	}), mock.Anything).Return(single(types.MissionImage{MissionID: "m1", ImageName: "IMG_A.JPG", Score: 0.4})).Once()

	image, err := store.GetImage(s.T().Context(), "m1", "IMG_A.jpg")
	s.Require().NoError(err)
	s.Equal("IMG_A.JPG", image.ImageName)
	s.Equal(0.4, image.Score)

	re := regexp.MustCompile(pattern)
	s.True(re.MatchString("IMG_A.JPG"))
	s.True(re.MatchString("IMG_A"))
	s.False(re.MatchString("IMG_AB.jpg"))
	s.False(re.MatchString("xIMG_A.jpg"))
}

func (s *RecordsUnitTestSuite) Test_ImageStore_GetImageMissing() {
	store := records.NewImageStore(s.app.Mongodb, s.app.Logger)
	s.collection.On("FindOne", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := store.GetImage(s.T().Context(), "m1", "IMG_Z.jpg")
	s.ErrorIs(err, roofscore.ErrNotFound)
}

func (s *RecordsUnitTestSuite) Test_ImageStore_ListImages() {
	store := records.NewImageStore(s.app.Mongodb, s.app.Logger)
	s.collection.On("Find", mock.Anything, bson.D{{Key: "mission_id", Value: "m1"}}, mock.Anything).Return(cursorOf(
		types.MissionImage{MissionID: "m1", ImageName: "IMG_A.jpg", Score: 0.4},
		types.MissionImage{MissionID: "m1", ImageName: "IMG_B.jpg", Score: 0.5},
	), nil).Once()

	images, err := store.ListImages(s.T().Context(), "m1")
	s.Require().NoError(err)
	s.Require().Len(images, 2)
	s.Equal("IMG_B.jpg", images[1].ImageName)
}

func (s *RecordsUnitTestSuite) Test_ImageStore_InsertSetsID() {
	store := records.NewImageStore(s.app.Mongodb, s.app.Logger)
	id := primitive.NewObjectID()
	s.collection.On("InsertOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.InsertOneResult{InsertedID: id}, nil).Once()

	image := &types.MissionImage{MissionID: "m1", ImageName: "IMG_C.jpg", Score: 1}
	s.Require().NoError(store.InsertImage(s.T().Context(), image))
	s.Equal(id, image.ID)
}

func (s *RecordsUnitTestSuite) Test_ImageStore_Upsert() {
	store := records.NewImageStore(s.app.Mongodb, s.app.Logger)
	s.collection.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(opts []*options.UpdateOptions) bool {
		return len(opts) == 1 && opts[0].Upsert != nil && *opts[0].Upsert
	})).Return(&mongo.UpdateResult{UpsertedCount: 1}, nil).Once()

	s.NoError(store.UpsertImage(s.T().Context(), &types.MissionImage{MissionID: "m1", ImageName: "IMG_A.jpg"}))
	s.collection.AssertExpectations(s.T())
}

func (s *RecordsUnitTestSuite) Test_ScoreStore_GetScoreLatestOnly() {
	store := records.NewScoreStore(s.app.Mongodb, s.app.Logger)
	s.collection.On("FindOne", mock.Anything, bson.D{{Key: "mission_id", Value: "m1"}}, mock.MatchedBy(func(opts []*options.FindOneOptions) bool {
		return len(opts) == 1 && opts[0].Projection != nil
	})).Return(single(types.MissionScore{MissionID: "m1", AvgScore: 0.45})).Once()

	score, err := store.GetScore(s.T().Context(), "m1", false)
	s.Require().NoError(err)
	s.Equal(0.45, score.AvgScore)
	s.NotNil(score.Updates)
}

func (s *RecordsUnitTestSuite) Test_ScoreStore_GetScoreMissing() {
	store := records.NewScoreStore(s.app.Mongodb, s.app.Logger)
	s.collection.On("FindOne", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := store.GetScore(s.T().Context(), "m1", true)
	s.ErrorIs(err, roofscore.ErrNotFound)
}

func (s *RecordsUnitTestSuite) Test_ScoreStore_CreateDuplicate() {
	store := records.NewScoreStore(s.app.Mongodb, s.app.Logger)
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}}
	s.collection.On("InsertOne", mock.Anything, mock.Anything, mock.Anything).Return(nil, dup).Once()

	err := store.CreateScore(s.T().Context(), &types.MissionScore{MissionID: "m1"})
	s.ErrorIs(err, roofscore.ErrConflict)
}

func (s *RecordsUnitTestSuite) Test_ScoreStore_AppendUnknownMission() {
	store := records.NewScoreStore(s.app.Mongodb, s.app.Logger)
	s.collection.On("UpdateOne", mock.Anything, bson.D{{Key: "mission_id", Value: "m1"}}, mock.MatchedBy(func(u interface{}) bool {
		_, ok := mongodb.GetBsonOperation(u, "$push")
		return ok
	}), mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil).Once()

	err := store.AppendUpdate(s.T().Context(), "m1", types.ScoreUpdateRecord{AvgScore: 0.5, Time: time.Now()})
	s.ErrorIs(err, roofscore.ErrNotFound)
}

func (s *RecordsUnitTestSuite) Test_ScoreStore_AcquireUpdateLock() {
	tests := []struct {
		name     string
		acquired bool
		count    int64
		want     error
	}{
		{"free mission", true, 0, nil},
		{"mission updating", false, 1, roofscore.ErrConflict},
		{"unknown mission", false, 0, roofscore.ErrNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.collection.ExpectedCalls = nil
			store := records.NewScoreStore(s.app.Mongodb, s.app.Logger)
			var res interface{}
			if tt.acquired {
				res = single(bson.D{{Key: "mission_id", Value: "m1"}})
			}
			s.collection.On("FindOneAndUpdate", mock.Anything, mock.Anything, bson.D{{Key: "$set", Value: bson.D{{Key: "task_updating", Value: "t1"}}}}, mock.Anything).Return(res).Once()
			s.collection.On("CountDocuments", mock.Anything, bson.D{{Key: "mission_id", Value: "m1"}}, mock.Anything).Return(tt.count, nil).Maybe()

			err := store.AcquireUpdateLock(s.T().Context(), "m1", "t1")
			if tt.want == nil {
				s.NoError(err)
				return
			}
			s.ErrorIs(err, tt.want)
		})
	}
}

func (s *RecordsUnitTestSuite) Test_ScoreStore_ReleaseUpdateLock() {
	tests := []struct {
		name    string
		matched int64
		count   int64
		want    error
	}{
		{"held by task", 1, 0, nil},
		{"held by another task", 0, 1, nil},
		{"unknown mission", 0, 0, roofscore.ErrNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.collection.ExpectedCalls = nil
			store := records.NewScoreStore(s.app.Mongodb, s.app.Logger)
			owned := bson.D{{Key: "mission_id", Value: "m1"}, {Key: "task_updating", Value: "t1"}}
			s.collection.On("UpdateOne", mock.Anything, owned, bson.D{{Key: "$unset", Value: bson.D{{Key: "task_updating", Value: ""}}}}, mock.Anything).
				Return(&mongo.UpdateResult{MatchedCount: tt.matched, ModifiedCount: tt.matched}, nil).Once()
			s.collection.On("CountDocuments", mock.Anything, bson.D{{Key: "mission_id", Value: "m1"}}, mock.Anything).Return(tt.count, nil).Maybe()

			err := store.ReleaseUpdateLock(s.T().Context(), "m1", "t1")
			if tt.want == nil {
				s.NoError(err)
			} else {
				s.ErrorIs(err, tt.want)
			}
			s.collection.AssertExpectations(s.T())
		})
	}
}

func (s *RecordsUnitTestSuite) Test_ScoreStore_ClearHistory() {
	tests := []struct {
		name    string
		matched int64
		count   int64
		want    error
	}{
		{"free mission", 1, 0, nil},
		{"mission updating", 0, 1, roofscore.ErrConflict},
		{"unknown mission", 0, 0, roofscore.ErrNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.collection.ExpectedCalls = nil
			store := records.NewScoreStore(s.app.Mongodb, s.app.Logger)
			unlocked := mock.MatchedBy(func(f bson.D) bool {
				return len(f) == 2 && f[0].Key == "mission_id" && f[0].Value == "m1" && f[1].Key == "$or"
			})
			s.collection.On("UpdateOne", mock.Anything, unlocked, bson.D{{Key: "$set", Value: bson.D{{Key: "updates", Value: bson.A{}}}}}, mock.Anything).
				Return(&mongo.UpdateResult{MatchedCount: tt.matched, ModifiedCount: tt.matched}, nil).Once()
			s.collection.On("CountDocuments", mock.Anything, bson.D{{Key: "mission_id", Value: "m1"}}, mock.Anything).Return(tt.count, nil).Maybe()

			err := store.ClearHistory(s.T().Context(), "m1")
			if tt.want == nil {
				s.NoError(err)
				return
			}
			s.ErrorIs(err, tt.want)
		})
	}
}

func (s *RecordsUnitTestSuite) Test_StatusStore_Lifecycle() {
	store := records.NewStatusStore(s.app.Mongodb, s.app.Logger)
	s.collection.On("UpdateOne", mock.Anything, bson.D{{Key: "version_id", Value: "m1"}}, mock.MatchedBy(func(u interface{}) bool {
		record, err := mongodb.GetDocFromBsonSetUpdateOperation[types.UpdateStatusRecord](u)
		return err == nil && record.UserEmail == "pilot@example.com" && record.UpdateStatus == types.UpdateStatusPending
	}), mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil).Once()
	s.collection.On("UpdateMany", mock.Anything, bson.D{{Key: "version_id", Value: "m1"}, {Key: "task_id", Value: "t1"}}, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Once()
	s.collection.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursorOf(
		types.UpdateStatusRecord{VersionID: "m1", UserID: "u1", TaskID: "t1", UpdateStatus: types.UpdateStatusSuccess},
	), nil).Once()
	s.collection.On("DeleteMany", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.DeleteResult{DeletedCount: 1}, nil).Once()

	ctx := s.T().Context()
	s.Require().NoError(store.Start(ctx, "m1", "u1", "pilot@example.com", "t1"))
	s.Require().NoError(store.Finish(ctx, "m1", "t1", types.UpdateStatusSuccess))

	done, err := store.ListDone(ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(done, 1)
	s.True(done[0].UpdateStatus.Done())

	n, err := store.Acknowledge(ctx, "u1", []string{"m1"})
	s.Require().NoError(err)
	s.Equal(int64(1), n)
	s.collection.AssertExpectations(s.T())
}

func (s *RecordsUnitTestSuite) Test_StatusStore_FinishError() {
	store := records.NewStatusStore(s.app.Mongodb, s.app.Logger)
	s.collection.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("not primary")).Once()

	s.Error(store.Finish(s.T().Context(), "m1", "t1", types.UpdateStatusFailure))
}
