package x

import (
	"context"
	"fmt"
	"time"

	"roofscore/apps/go/scorer/common"
	"roofscore/apps/go/scorer/export"
	"roofscore/apps/go/scorer/metrics"
	"roofscore/apps/go/scorer/records"
	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/events"
	"roofscore/packages/go/logger"
	"roofscore/packages/go/mailer"
	"roofscore/packages/go/mongodb"
	"roofscore/packages/go/objectstore"
	"roofscore/packages/go/vda"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
)

// AppName is attached to every log entry and names the default config folder.
var AppName = "roofscore"

func ensureTemporalNamespaceExists(opts *client.Options, l *zerolog.Logger) {
	grpcClient, err := grpc.Dial(opts.HostPort, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithBlock())
	if err != nil {
		l.Fatal().Err(err).Msg("unable to create a Temporal GRPC Client")
	}
	defer func(grpcClient *grpc.ClientConn) {
		e := grpcClient.Close()
		if e != nil {
			l.Error().Err(e).Msg("unable to close a Temporal GRPC Client")
		}
	}(grpcClient)

	namespaceRegistry := workflowservice.NewWorkflowServiceClient(grpcClient)
	namespaceRequest := &workflowservice.RegisterNamespaceRequest{
		Namespace:                        opts.Namespace,
		WorkflowExecutionRetentionPeriod: &durationpb.Duration{Seconds: int64(3 * 24 * 60 * 60)},
	}

	_, err = namespaceRegistry.RegisterNamespace(context.Background(), namespaceRequest)
	if err != nil {
		grpcStatus := status.Convert(err)

		// If already exist error, ignore, else return error
		if grpcStatus.Code() != codes.AlreadyExists {
			l.Fatal().Err(err).Msg("Temporal Namespace registration failed")
		}
		l.Info().Str("Namespace", opts.Namespace).Msg("Namespace already exists")
	} else {
		l.Info().Str("Namespace", opts.Namespace).Msg("Namespace created successfully")
	}
}

// Indexes are created on start up, the unique mission_id backs the create conflict.
func Indexes() []mongodb.Index {
	return []mongodb.Index{
		{
			Collection: types.MissionScoresCollection,
			Model: mongo.IndexModel{
				Keys:    bson.D{{Key: "mission_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			Collection: types.MissionImagesCollection,
			Model: mongo.IndexModel{
				Keys: bson.D{{Key: "mission_id", Value: 1}, {Key: "img_name", Value: 1}},
			},
		},
		{
			Collection: types.UpdateScoreStatusCollection,
			Model: mongo.IndexModel{
				Keys: bson.D{{Key: "version_id", Value: 1}},
			},
		},
		{
			Collection: types.UpdateScoreStatusCollection,
			Model: mongo.IndexModel{
				Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "update_status", Value: 1}},
			},
		},
	}
}

// Initialize builds the app from the config file: storage, Temporal client, the scoring
// engine and the optional collaborators enabled by the config.
func Initialize() *common.App {
	cfg := LoadConfigFile()
	l := logger.New(AppName, cfg.LogLevel, nil)

	m := mongodb.NewClient(cfg.MongodbUri, []string{
		types.MissionImagesCollection,
		types.MissionScoresCollection,
		types.UpdateScoreStatusCollection,
	}, Indexes(), l)

	temporalClientOptions := client.Options{
		HostPort:  fmt.Sprintf("%s:%d", cfg.Temporal.Host, cfg.Temporal.Port),
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger.NewZerologAdapter(*l),
	}
	ensureTemporalNamespaceExists(&temporalClientOptions, l)
	temporalClient, err := client.Dial(temporalClientOptions)
	if err != nil {
		l.Fatal().Err(err).Msg("unable to create a Temporal Client")
	}
	l.Info().
		Str("Namespace", temporalClientOptions.Namespace).
		Str("TaskQueue", cfg.Temporal.TaskQueue).
		Msg("Successfully connected to Temporal Server")

	ac := &common.App{
		Logger:         l,
		Config:         cfg,
		Mongodb:        m,
		TemporalClient: temporalClient,
	}
	ac.OnClose(m.CloseConnection)
	ac.OnClose(temporalClient.Close)

	if cfg.Metrics {
		ac.Metrics = metrics.New()
	}
	wire(context.Background(), ac)
	return ac
}

// wire builds the collaborators on top of the storage of ac.
func wire(ctx context.Context, ac *common.App) {
	cfg, l := ac.Config, ac.Logger

	images := records.NewImageStore(ac.Mongodb, logger.Component(l, "images"))
	scores := records.NewScoreStore(ac.Mongodb, logger.Component(l, "scores"))
	ac.Scores = scores
	ac.Status = records.NewStatusStore(ac.Mongodb, logger.Component(l, "status"))
	ac.Service = roofscore.NewService(images, scores, logger.Component(l, "service"))

	engineOpts := []roofscore.EngineOption{
		roofscore.WithScorer(roofscore.NewScorer(cfg.Scoring.ScaleW, cfg.Scoring.ScaleH)),
	}
	if o := ac.Observer(); o != nil {
		engineOpts = append(engineOpts, roofscore.WithObserver(o))
	}

	var source roofscore.ImageSource
	var store *objectstore.Store
	if cfg.Storage != nil && cfg.Storage.Bucket != "" {
		var err error
		store, err = objectstore.New(ctx, objectstore.Options{
			Bucket:          cfg.Storage.Bucket,
			CredentialsFile: cfg.Storage.CredentialsFile,
			Endpoint:        cfg.Storage.Endpoint,
			Prefix:          cfg.Storage.Prefix,
		}, logger.Component(l, "storage"))
		if err != nil {
			l.Fatal().Err(err).Msg("unable to create object store")
		}
		source = store
	} else {
		l.Warn().Msg("no storage bucket configured, raw image sizes fall back to the reference shape")
	}

	engine := roofscore.NewEngine(images, scores, source, cfg.Scoring.Workers, logger.Component(l, "engine"), engineOpts...)
	ac.Engine = engine
	ac.OnClose(engine.Close)

	if store != nil {
		ac.Exporter = export.NewExporter(ac.Service, store, logger.Component(l, "export"))
	}

	if cfg.Vda != nil && cfg.Vda.BaseUrl != "" {
		opts := vda.NewDefaultOptions()
		opts.BaseUrl = cfg.Vda.BaseUrl
		opts.Key = cfg.Vda.Key
		opts.Secret = cfg.Vda.Secret
		opts.RatePerSec = cfg.Vda.RatePerSec
		opts.Retries = cfg.Vda.Retries
		opts.CacheTTL = time.Duration(cfg.Vda.CacheTTL) * time.Second
		missions, err := vda.NewClient(opts, logger.Component(l, "vda"))
		if err != nil {
			l.Fatal().Err(err).Msg("unable to create vda client")
		}
		ac.Missions = missions
	}

	if cfg.Mail != nil && len(cfg.Mail.Urls) > 0 {
		m, err := mailer.New(cfg.Mail.Urls, cfg.Mail.FrontendHost, 30*time.Second, logger.Component(l, "mailer"))
		if err != nil {
			l.Fatal().Err(err).Msg("unable to create mailer")
		}
		ac.Mailer = m
	}

	if cfg.Mqtt != nil && cfg.Mqtt.Broker != "" {
		p, err := events.Connect(events.Options{
			Broker:   cfg.Mqtt.Broker,
			ClientID: cfg.Mqtt.ClientID,
			Topic:    cfg.Mqtt.Topic,
			Username: cfg.Mqtt.Username,
			Password: cfg.Mqtt.Password,
		}, logger.Component(l, "events"))
		if err != nil {
			l.Error().Err(err).Msg("unable to connect to mqtt broker, score events disabled")
		} else if p != nil {
			ac.Events = p
			ac.OnClose(p.Close)
		}
	}
}
