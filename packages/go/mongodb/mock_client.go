package mongodb

import (
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MockClient struct {
	mock.Mock
	Uri    string
	Logger *zerolog.Logger
}

var _ MongoDb = (*MockClient)(nil)

func (mc *MockClient) GetDatabaseName(uri string, defaultName string) string {
	args := mc.Called(uri, defaultName)
	return args.String(0)
}

// GetCollection is the point where tests plug a MockCollection per collection name.
func (mc *MockClient) GetCollection(name string) (response CollectionAPI) {
	args := mc.Called(name)
	firstResponseArg := args.Get(0)

	if firstResponseArg != nil {
		if v, ok := firstResponseArg.(CollectionAPI); !ok {
			panic(UnexpectedType)
		} else {
			response = v
		}
	}

	return
}

func (mc *MockClient) StartSession(opts ...*options.SessionOptions) (mongo.Session, error) {
	args := mc.Called(opts)
	return args.Get(0).(mongo.Session), args.Error(1)
}

func (mc *MockClient) CloseConnection() {
	mc.Called()
}

func NewMockClient(uri string, l *zerolog.Logger) *MockClient {
	return &MockClient{
		Uri:    uri,
		Logger: l,
	}
}
