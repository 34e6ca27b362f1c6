package mongodb

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var UnexpectedType = errors.New("mock returned an unexpected type")

type MongoDb interface {
	GetDatabaseName(uri string, defaultName string) string
	GetCollection(name string) CollectionAPI
	StartSession(opts ...*options.SessionOptions) (mongo.Session, error)
	CloseConnection()
}

// Index declares an index created at start up on a collection.
type Index struct {
	Collection string
	Model      mongo.IndexModel
}

type Client struct {
	Uri         string
	Client      *mongo.Client
	Collections *xsync.MapOf[string, CollectionAPI]
	Logger      *zerolog.Logger
}

func (m *Client) GetDatabaseName(uri string, defaultName string) string {
	u, err := url.Parse(uri)
	if err != nil {
		panic(err)
	}

	// The database name resides in the path, trim the leading slash
	dbName := strings.TrimPrefix(u.Path, "/")

	if dbName == "" {
		return defaultName
	}

	return dbName
}

func (m *Client) GetCollection(name string) CollectionAPI {
	if coll, ok := m.Collections.Load(name); !ok {
		panic("collection " + name + " not exists")
	} else {
		return coll
	}
}

func (m *Client) StartSession(opts ...*options.SessionOptions) (mongo.Session, error) {
	return m.Client.StartSession(opts...)
}

func (m *Client) CloseConnection() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.Client.Disconnect(ctx); err != nil {
		m.Logger.Error().Err(err).Msg("Errored closing MongoDB connection")
		return
	}
	m.Logger.Info().Msg("MongoDB connection successfully closed.")
}

func NewClient(uri string, collections []string, indexes []Index, l *zerolog.Logger) MongoDb {
	m := Client{
		Uri:         uri,
		Client:      nil,
		Collections: xsync.NewMapOf[string, CollectionAPI](),
		Logger:      l,
	}
	// Set client options
	clientOptions := options.Client().ApplyURI(uri)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to MongoDB
	client, err := mongo.Connect(ctx, clientOptions)

	if err != nil {
		l.Fatal().Err(err).Msg("error creating mongodb client connection")
	}

	// Check the connection
	err = client.Ping(ctx, nil)
	if err != nil {
		l.Fatal().Err(err).Msg("error pinging mongodb server")
	}

	l.Info().Msg("Connected to MongoDB!")

	m.Client = client

	_db := client.Database(m.GetDatabaseName(uri, "test"))
	for _, collectionName := range collections {
		collection := _db.Collection(collectionName)
		if e := _db.CreateCollection(ctx, collectionName); e != nil {
			var cmdErr mongo.CommandError
			if !errors.As(e, &cmdErr) || cmdErr.Name != "NamespaceExists" {
				l.Fatal().Err(e).Str("collection", collectionName).Msg("Errored preparing collection")
			}
		}
		m.Collections.Store(collectionName, &Collection{collection: collection})
	}

	for _, idx := range indexes {
		coll, ok := m.Collections.Load(idx.Collection)
		if !ok {
			l.Fatal().Str("collection", idx.Collection).Msg("index declared on unknown collection")
		}
		name, e := coll.(*Collection).collection.Indexes().CreateOne(ctx, idx.Model)
		if e != nil {
			l.Fatal().Err(e).Str("collection", idx.Collection).Msg("Errored creating index")
		}
		l.Debug().Str("collection", idx.Collection).Str("index", name).Msg("index ready")
	}

	return &m
}
