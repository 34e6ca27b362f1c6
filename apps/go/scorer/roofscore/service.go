package roofscore

import (
	"context"
	"fmt"
	"time"

	"roofscore/apps/go/scorer/types"

	"github.com/rs/zerolog"
)

// ImageView selects how mission images are presented.
type ImageView int

const (
	// ViewEffective overlays the update history on the stored images.
	ViewEffective ImageView = iota
	// ViewOriginal returns the images as the detection pipeline stored them.
	ViewOriginal
	// ViewFiltered is ViewEffective with defects below the thresholds removed.
	ViewFiltered
)

// Service exposes mission scores and images to the API and the workers.
type Service struct {
	images ImageStore
	scores ScoreStore
	now    func() time.Time
	logger *zerolog.Logger
}

func NewService(images ImageStore, scores ScoreStore, l *zerolog.Logger) *Service {
	return &Service{images: images, scores: scores, now: time.Now, logger: l}
}

func (s *Service) GetScore(ctx context.Context, missionID string, includeHistory bool) (*types.MissionScore, error) {
	return s.scores.GetScore(ctx, missionID, includeHistory)
}

// CreateScore registers the initial score of a mission version.
func (s *Service) CreateScore(ctx context.Context, missionID string, avgScore float64, rcif string) (*types.MissionScore, error) {
	if missionID == "" {
		return nil, fmt.Errorf("%w: mission_id is required", ErrInvalidUpdate)
	}
	if avgScore < 0 {
		return nil, fmt.Errorf("%w: avg_score %v is negative", ErrInvalidUpdate, avgScore)
	}
	score := &types.MissionScore{
		MissionID: missionID,
		AvgScore:  avgScore,
		Updates:   []types.ScoreUpdateRecord{},
		EmcRcif:   rcif,
	}
	if err := s.scores.CreateScore(ctx, score); err != nil {
		return nil, err
	}
	s.logger.Info().Str("mission_id", missionID).Float64("avg_score", avgScore).Msg("mission score created")
	return score, nil
}

// UpsertImage stores detection output for an image, replacing the image with the same stem.
func (s *Service) UpsertImage(ctx context.Context, image *types.MissionImage) error {
	if err := image.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUpdate, err)
	}
	if image.ImageType == "" {
		image.ImageType = types.ImageMLProcessed
	}
	return s.images.UpsertImage(ctx, image)
}

// Revert drops the whole update history, back to the scores of the detection pipeline.
func (s *Service) Revert(ctx context.Context, missionID string) error {
	score, err := s.scores.GetScore(ctx, missionID, true)
	if err != nil {
		return err
	}
	if score.IsUpdating() {
		return ErrConflict
	}
	if len(score.Updates) == 0 {
		return ErrNothingToRevert
	}
	if err = s.scores.ClearHistory(ctx, missionID); err != nil {
		return err
	}
	s.logger.Info().Str("mission_id", missionID).Int("updates", len(score.Updates)).Msg("mission score reverted")
	return nil
}

// Submit marks the mission score as submitted.
func (s *Service) Submit(ctx context.Context, missionID string) (time.Time, error) {
	at := s.now().UTC()
	if err := s.scores.SetSubmitted(ctx, missionID, at); err != nil {
		return time.Time{}, err
	}
	return at, nil
}

// GetImage returns one image by name, compared by stem, in the requested view.
func (s *Service) GetImage(ctx context.Context, missionID, imageName string, view ImageView) (*types.MissionImage, error) {
	image, err := s.images.GetImage(ctx, missionID, imageName)
	if err != nil {
		return nil, err
	}
	if view == ViewOriginal {
		return image, nil
	}
	score, err := s.scores.GetScore(ctx, missionID, true)
	if err != nil {
		return nil, err
	}
	out := present([]types.MissionImage{*image}, score, view)
	return &out[0], nil
}

// ListImages returns the mission images in the requested view.
func (s *Service) ListImages(ctx context.Context, missionID string, view ImageView) ([]types.MissionImage, error) {
	images, err := s.images.ListImages(ctx, missionID)
	if err != nil {
		return nil, err
	}
	if view == ViewOriginal {
		return images, nil
	}
	score, err := s.scores.GetScore(ctx, missionID, true)
	if err != nil {
		return nil, err
	}
	return present(images, score, view), nil
}

func present(images []types.MissionImage, score *types.MissionScore, view ImageView) []types.MissionImage {
	effective := Project(images, score.Updates)
	if view != ViewFiltered {
		return effective
	}
	project := score.EffectiveProjectThreshold()
	for i := range effective {
		settings := effective[i].ThresholdSettings
		if settings == nil {
			settings = project
		}
		effective[i].Defects.Polygons = FilterDefects(effective[i].Defects.Polygons, settings)
	}
	return effective
}
