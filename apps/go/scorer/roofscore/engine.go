package roofscore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/geometry"
	"roofscore/packages/go/utils"

	"github.com/alitto/pond"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// DefaultImageShape is used for images that cannot be read from storage.
var DefaultImageShape = geometry.Shape{Height: ReferenceHeight, Width: ReferenceWidth}

// UnprocessedImageScore is the score of an image the detection pipeline never processed.
const UnprocessedImageScore = 1.0

// UpdateResult is the outcome of a recompute.
type UpdateResult struct {
	MissionID string  `json:"mission_id"`
	AvgScore  float64 `json:"avg_score"`
	// ImageUpdates are the scored updates stored in the new record, in batch order.
	ImageUpdates []types.ImageScoreUpdate `json:"image_updates"`
	// ImageErrors are the images that could not be scored; they keep their previous score.
	ImageErrors ImageErrors `json:"image_errors,omitempty"`
	// Synthesized lists the images created because an update referenced them before they existed.
	Synthesized []string                `json:"synthesized,omitempty"`
	Record      types.ScoreUpdateRecord `json:"-"`
}

type EngineOption func(*Engine)

func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func WithScorer(s *Scorer) EngineOption {
	return func(e *Engine) { e.scorer = s }
}

// Engine recomputes mission scores from update batches.
type Engine struct {
	images   ImageStore
	scores   ScoreStore
	source   ImageSource
	scorer   *Scorer
	pool     *pond.WorkerPool
	observer Observer
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewEngine(images ImageStore, scores ScoreStore, source ImageSource, workers int, l *zerolog.Logger, opts ...EngineOption) *Engine {
	if workers <= 0 {
		workers = 1
	}
	e := &Engine{
		images:   images,
		scores:   scores,
		source:   source,
		scorer:   NewScorer(DefaultScaleW, DefaultScaleH),
		pool:     pond.New(workers, 1000, pond.MinWorkers(0)),
		observer: noopObserver{},
		now:      time.Now,
		logger:   l,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close stops the scoring workers.
func (e *Engine) Close() {
	e.pool.StopAndWait()
}

// ApplyUpdate holds the mission's update lock for taskID while recomputing. The lock is released
// whatever the outcome.
func (e *Engine) ApplyUpdate(ctx context.Context, missionID, taskID string, batch types.ScoreUpdateBatch) (*UpdateResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUpdate, err)
	}
	if err := e.scores.AcquireUpdateLock(ctx, missionID, taskID); err != nil {
		if errors.Is(err, ErrConflict) {
			e.observer.ObserveLockConflict()
		}
		return nil, err
	}
	defer e.release(missionID, taskID)

	return e.Recompute(ctx, missionID, batch)
}

func (e *Engine) release(missionID, taskID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.scores.ReleaseUpdateLock(ctx, missionID, taskID); err != nil {
		e.logger.Error().Err(err).Str("mission_id", missionID).Msg("unable to release score update lock")
	}
}

// Recompute scores a batch and appends the resulting record. It expects the caller to hold the
// mission's update lock. Images synthesized for the batch stay stored even if it fails later.
func (e *Engine) Recompute(ctx context.Context, missionID string, batch types.ScoreUpdateBatch) (result *UpdateResult, err error) {
	start := e.now()
	imageCount := 0
	defer func() {
		e.observer.ObserveRecompute(e.now().Sub(start), imageCount, err)
	}()

	if err = batch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUpdate, err)
	}
	l := e.logger.With().Str("mission_id", missionID).Logger()

	score, err := e.scores.GetScore(ctx, missionID, true)
	if err != nil {
		return nil, err
	}
	images, err := e.images.ListImages(ctx, missionID)
	if err != nil {
		return nil, err
	}

	synthesized, err := e.synthesizeMissing(ctx, score, images, batch.ImageUpdates, &l)
	if err != nil {
		return nil, err
	}
	if len(synthesized) > 0 {
		if images, err = e.images.ListImages(ctx, missionID); err != nil {
			return nil, err
		}
	}
	imageCount = len(images)

	effective := Project(images, score.Updates)
	scores := make([]float64, len(effective))
	for i := range effective {
		scores[i] = effective[i].Score
	}

	var (
		mu        sync.Mutex
		imageErrs ImageErrors
	)
	fail := func(name string, err error) {
		l.Error().Err(err).Str("img_name", name).Msg("unable to score image")
		e.observer.ObserveImageError(name)
		mu.Lock()
		imageErrs = append(imageErrs, &ImageError{ImageName: name, Err: err})
		mu.Unlock()
	}

	thresholdChanged := batch.ProjectThresholdSettings.IsSet()
	rescored := make([]bool, len(effective))
	if thresholdChanged {
		l.Debug().Int("images", len(effective)).Msg("project thresholds changed, scoring every image")
		err = e.parallel(ctx, len(effective), func(i int) {
			r, scoreErr := e.scorer.ScoreImage(&effective[i], batch.ProjectThresholdSettings)
			if scoreErr != nil {
				fail(effective[i].ImageName, scoreErr)
				return
			}
			scores[i] = r.Score
			rescored[i] = true
		})
		if err != nil {
			return nil, err
		}
	}

	project := batch.ProjectThresholdSettings
	if project == nil {
		project = score.EffectiveProjectThreshold()
	}

	index := make(map[string]int, len(effective))
	for i := range effective {
		index[effective[i].Stem()] = i
	}
	updates := make([]types.ImageScoreUpdate, len(batch.ImageUpdates))
	scored := make([]bool, len(batch.ImageUpdates))
	err = e.parallel(ctx, len(batch.ImageUpdates), func(u int) {
		update := batch.ImageUpdates[u].Clone()
		i, ok := index[update.Stem()]
		if !ok {
			fail(update.ImageName, ErrNotFound)
			return
		}
		r, scoreErr := e.scorer.ScoreUpdate(&effective[i], &update, project)
		if scoreErr != nil {
			fail(update.ImageName, scoreErr)
			return
		}
		l.Debug().Str("img_name", update.ImageName).Float64("score", r.Score).
			Int("roof_tiles", r.RoofTiles).Int("defect_tiles", r.DefectTiles).Msg("image scored")
		update.Score = r.Score
		updates[u] = update
		scored[u] = true
		// each update targets a distinct image
		scores[i] = r.Score
		rescored[i] = false
	})
	if err != nil {
		return nil, err
	}

	recorded := make([]types.ImageScoreUpdate, 0, len(updates))
	for u := range updates {
		if scored[u] {
			recorded = append(recorded, updates[u])
		}
	}
	if len(batch.ImageUpdates) > 0 && len(recorded) == 0 && !thresholdChanged {
		return nil, fmt.Errorf("%w: no image update could be scored: %w", ErrInvalidUpdate, imageErrs)
	}

	var rescoredImages []types.RescoredImage
	for i := range effective {
		if rescored[i] {
			rescoredImages = append(rescoredImages, types.RescoredImage{ImageName: effective[i].ImageName, Score: scores[i]})
		}
	}

	avg := AverageScore(scores, score.EffectiveAvgScore())
	record := types.ScoreUpdateRecord{
		ImageUpdates:             recorded,
		ImageScores:              rescoredImages,
		ProjectThresholdSettings: batch.ProjectThresholdSettings.Clone(),
		AvgScore:                 avg,
		Time:                     e.now().UTC(),
	}
	if err = e.scores.AppendUpdate(ctx, missionID, record); err != nil {
		return nil, err
	}
	l.Info().Float64("avg_score", avg).Int("image_updates", len(recorded)).
		Int("image_errors", len(imageErrs)).Bool("threshold_changed", thresholdChanged).
		Msg("mission score updated")

	return &UpdateResult{
		MissionID:    missionID,
		AvgScore:     avg,
		ImageUpdates: recorded,
		ImageErrors:  imageErrs,
		Synthesized:  synthesized,
		Record:       record,
	}, nil
}

// parallel runs fn for 0..n-1 on the worker pool and waits for all of them.
func (e *Engine) parallel(ctx context.Context, n int, fn func(i int)) error {
	if n == 0 {
		return nil
	}
	group, gctx := e.pool.GroupContext(ctx)
	for i := 0; i < n; i++ {
		group.Submit(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	return group.Wait()
}

// synthesizeMissing stores an image for every update referencing an image the mission does not
// have yet. Its roof mask is empty and sized after the raw drone image when storage can provide it.
func (e *Engine) synthesizeMissing(ctx context.Context, score *types.MissionScore, images []types.MissionImage, updates []types.ImageScoreUpdate, l *zerolog.Logger) ([]string, error) {
	known := make(map[string]struct{}, len(images))
	for i := range images {
		known[images[i].Stem()] = struct{}{}
	}

	var created []string
	for i := range updates {
		stem := updates[i].Stem()
		if _, ok := known[stem]; ok {
			continue
		}
		shape := DefaultImageShape
		if e.source != nil {
			s, err := e.source.ImageShape(ctx, score.EmcRcif, score.MissionID, updates[i].ImageName)
			if err != nil {
				l.Warn().Err(err).Str("img_name", updates[i].ImageName).Msg("unable to read raw image, using reference size")
			} else {
				shape = s
			}
		}
		image := &types.MissionImage{
			MissionID: score.MissionID,
			ImageName: utils.NormalizedImageName(updates[i].ImageName),
			RoofMask: &types.RoofMask{
				Shape:   []int{shape.Height, shape.Width},
				Dtype:   "uint8",
				Contour: []geometry.Contour{},
			},
			EnvContours: []types.EnvironmentContour{},
			Defects:     types.Defects{Polygons: []types.DefectPolygon{}},
			Score:       UnprocessedImageScore,
			EmcRcif:     score.EmcRcif,
			ImageType:   types.ImageNoML,
		}
		if err := e.images.InsertImage(ctx, image); err != nil {
			return created, err
		}
		l.Warn().Str("img_name", image.ImageName).Msg("stored unprocessed image referenced by update")
		known[stem] = struct{}{}
		created = append(created, image.ImageName)
	}
	return created, nil
}

// AverageScore is the mean of the image scores. A mission without images keeps its previous average.
func AverageScore(scores []float64, previous float64) float64 {
	if len(scores) == 0 {
		return previous
	}
	return stat.Mean(scores, nil)
}
