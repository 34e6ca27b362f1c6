package common

import (
	"context"

	"roofscore/apps/go/scorer/metrics"
	"roofscore/apps/go/scorer/roofscore"
	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/events"
	"roofscore/packages/go/mongodb"
	"roofscore/packages/go/vda"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
)

// Recomputer scores an update batch for a mission whose update lock is already held.
type Recomputer interface {
	Recompute(ctx context.Context, missionID string, batch types.ScoreUpdateBatch) (*roofscore.UpdateResult, error)
}

// StatusTracker keeps the per version update status shown to the submitting user.
type StatusTracker interface {
	Start(ctx context.Context, versionID, userID, userEmail, taskID string) error
	Finish(ctx context.Context, versionID, taskID string, status types.UpdateStatus) error
	ListDone(ctx context.Context, userID string) ([]types.UpdateStatusRecord, error)
	Acknowledge(ctx context.Context, userID string, versionIDs []string) (int64, error)
}

// MissionDetails looks up mission metadata on the VDA platform.
type MissionDetails interface {
	MissionDetail(ctx context.Context, missionID string) (*vda.MissionDetail, error)
}

type Notifier interface {
	Enabled() bool
	SendScoreUpdated(ctx context.Context, to, versionID, missionName string) error
}

type EventPublisher interface {
	PublishScoreUpdated(ctx context.Context, ev events.ScoreUpdated) error
}

type ScoreExporter interface {
	Export(ctx context.Context, missionID string) ([]string, error)
}

// App holds the process wide dependencies built by x.Initialize. Optional collaborators
// (Missions, Mailer, Events, Exporter, Metrics) are nil when not configured.
type App struct {
	Logger         *zerolog.Logger
	Config         *types.Config
	Mongodb        mongodb.MongoDb
	TemporalClient client.Client

	Scores   roofscore.ScoreStore
	Status   StatusTracker
	Engine   Recomputer
	Service  *roofscore.Service
	Missions MissionDetails
	Mailer   Notifier
	Events   EventPublisher
	Exporter ScoreExporter
	Metrics  *metrics.Metrics

	closers []func()
}

// MissionName resolves the display name of a mission, falling back to its id.
func (a *App) MissionName(ctx context.Context, missionID string) string {
	if a.Missions == nil {
		return missionID
	}
	detail, err := a.Missions.MissionDetail(ctx, missionID)
	if err != nil {
		a.Logger.Warn().Err(err).Str("mission_id", missionID).Msg("unable to get mission detail")
		return missionID
	}
	return detail.Name(missionID)
}

// OnClose registers a function run by Close, in reverse registration order.
func (a *App) OnClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases the connections opened for the app.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Observer returns the metrics as an engine observer, nil when metrics are disabled.
func (a *App) Observer() roofscore.Observer {
	if a.Metrics == nil {
		return nil
	}
	return a.Metrics
}
