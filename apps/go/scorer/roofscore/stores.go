package roofscore

import (
	"context"
	"time"

	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/geometry"
)

// ImageStore persists the original state of mission images.
type ImageStore interface {
	// GetImage returns the image whose name has the given stem, ErrNotFound when missing.
	GetImage(ctx context.Context, missionID, imageName string) (*types.MissionImage, error)
	ListImages(ctx context.Context, missionID string) ([]types.MissionImage, error)
	InsertImage(ctx context.Context, image *types.MissionImage) error
	// UpsertImage replaces the image with the same mission and stem, inserting it when missing.
	UpsertImage(ctx context.Context, image *types.MissionImage) error
}

// ScoreStore persists mission scores and their append only update history.
type ScoreStore interface {
	// GetScore returns ErrNotFound when the mission has no score. Without history only the latest
	// update record is loaded.
	GetScore(ctx context.Context, missionID string, includeHistory bool) (*types.MissionScore, error)
	// CreateScore returns ErrConflict when the mission already has a score.
	CreateScore(ctx context.Context, score *types.MissionScore) error
	AppendUpdate(ctx context.Context, missionID string, record types.ScoreUpdateRecord) error
	// ClearHistory empties the history unless a task holds the mission, ErrConflict then.
	ClearHistory(ctx context.Context, missionID string) error
	SetSubmitted(ctx context.Context, missionID string, at time.Time) error
	// AcquireUpdateLock sets task_updating when it is empty. It returns ErrConflict while another
	// task holds the mission and ErrNotFound for an unknown mission.
	AcquireUpdateLock(ctx context.Context, missionID, taskID string) error
	// ReleaseUpdateLock clears task_updating when taskID holds it and is a no-op otherwise.
	ReleaseUpdateLock(ctx context.Context, missionID, taskID string) error
}

// ImageSource reads the raw drone images of a mission.
type ImageSource interface {
	ImageShape(ctx context.Context, rcif, missionID, imageName string) (geometry.Shape, error)
}

// Observer receives engine measurements.
type Observer interface {
	ObserveRecompute(d time.Duration, images int, err error)
	ObserveImageError(imageName string)
	ObserveLockConflict()
}

type noopObserver struct{}

func (noopObserver) ObserveRecompute(time.Duration, int, error) {}
func (noopObserver) ObserveImageError(string)                    {}
func (noopObserver) ObserveLockConflict()                        {}
