package mongodb

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MockCollection is a testify mock of CollectionAPI. Cursors and single results are built with
// mongo.NewCursorFromDocuments and mongo.NewSingleResultFromDocument; a nil single result
// decodes as mongo.ErrNoDocuments.
type MockCollection struct {
	mock.Mock
}

var _ CollectionAPI = (*MockCollection)(nil)

func (mc *MockCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	args := mc.Called(ctx, filter, opts)
	return singleResult(args.Get(0))
}

func (mc *MockCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	args := mc.Called(ctx, filter, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.Cursor), args.Error(1)
}

func (mc *MockCollection) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	args := mc.Called(ctx, filter, update, opts)
	return singleResult(args.Get(0))
}

func (mc *MockCollection) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	args := mc.Called(ctx, filter, opts)
	return args.Get(0).(int64), args.Error(1)
}

func (mc *MockCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	args := mc.Called(ctx, document, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.InsertOneResult), args.Error(1)
}

func (mc *MockCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	args := mc.Called(ctx, filter, update, opts)
	return updateResult(args)
}

func (mc *MockCollection) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	args := mc.Called(ctx, filter, update, opts)
	return updateResult(args)
}

func (mc *MockCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	args := mc.Called(ctx, filter, opts)
	return deleteResult(args)
}

func (mc *MockCollection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	args := mc.Called(ctx, filter, opts)
	return deleteResult(args)
}

func singleResult(v interface{}) *mongo.SingleResult {
	if v == nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	if r, ok := v.(*mongo.SingleResult); ok {
		return r
	}
	panic(UnexpectedType)
}

func updateResult(args mock.Arguments) (*mongo.UpdateResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.UpdateResult), args.Error(1)
}

func deleteResult(args mock.Arguments) (*mongo.DeleteResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mongo.DeleteResult), args.Error(1)
}
