package roofscore

import (
	"context"
	"errors"
	"sync"
	"time"

	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/geometry"
	"roofscore/packages/go/utils"
)

// memImages and memScores are in memory stores for engine and service tests.
type memImages struct {
	mu     sync.Mutex
	images map[string][]types.MissionImage
	// onList runs before every ListImages call
	onList func()
}

func newMemImages(images ...types.MissionImage) *memImages {
	m := &memImages{images: map[string][]types.MissionImage{}}
	for _, img := range images {
		m.images[img.MissionID] = append(m.images[img.MissionID], img)
	}
	return m
}

func (m *memImages) GetImage(_ context.Context, missionID, imageName string) (*types.MissionImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, img := range m.images[missionID] {
		if img.Stem() == utils.ImageStem(imageName) {
			c := img.Clone()
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memImages) ListImages(_ context.Context, missionID string) ([]types.MissionImage, error) {
	if m.onList != nil {
		m.onList()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.MissionImage, 0, len(m.images[missionID]))
	for _, img := range m.images[missionID] {
		out = append(out, img.Clone())
	}
	return out, nil
}

func (m *memImages) InsertImage(_ context.Context, image *types.MissionImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[image.MissionID] = append(m.images[image.MissionID], image.Clone())
	return nil
}

func (m *memImages) UpsertImage(_ context.Context, image *types.MissionImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.images[image.MissionID]
	for i := range list {
		if list[i].Stem() == image.Stem() {
			list[i] = image.Clone()
			return nil
		}
	}
	m.images[image.MissionID] = append(list, image.Clone())
	return nil
}

func (m *memImages) count(missionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images[missionID])
}

type memScores struct {
	mu        sync.Mutex
	scores    map[string]*types.MissionScore
	appendErr error
	// afterGet runs after every GetScore read, outside the store mutex
	afterGet func()
}

func newMemScores(scores ...types.MissionScore) *memScores {
	m := &memScores{scores: map[string]*types.MissionScore{}}
	for i := range scores {
		s := scores[i]
		m.scores[s.MissionID] = &s
	}
	return m
}

func (m *memScores) GetScore(_ context.Context, missionID string, includeHistory bool) (*types.MissionScore, error) {
	score, err := m.read(missionID, includeHistory)
	if m.afterGet != nil {
		m.afterGet()
	}
	return score, err
}

func (m *memScores) read(missionID string, includeHistory bool) (*types.MissionScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scores[missionID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *s
	c.Updates = append([]types.ScoreUpdateRecord(nil), s.Updates...)
	if !includeHistory && len(c.Updates) > 1 {
		c.Updates = c.Updates[len(c.Updates)-1:]
	}
	return &c, nil
}

func (m *memScores) CreateScore(_ context.Context, score *types.MissionScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scores[score.MissionID]; ok {
		return ErrConflict
	}
	c := *score
	m.scores[score.MissionID] = &c
	return nil
}

func (m *memScores) AppendUpdate(_ context.Context, missionID string, record types.ScoreUpdateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	s, ok := m.scores[missionID]
	if !ok {
		return ErrNotFound
	}
	s.Updates = append(s.Updates, record)
	return nil
}

func (m *memScores) ClearHistory(_ context.Context, missionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scores[missionID]
	if !ok {
		return ErrNotFound
	}
	if s.IsUpdating() {
		return ErrConflict
	}
	s.Updates = []types.ScoreUpdateRecord{}
	return nil
}

func (m *memScores) SetSubmitted(_ context.Context, missionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scores[missionID]
	if !ok {
		return ErrNotFound
	}
	s.SubmittedDate = &at
	return nil
}

func (m *memScores) AcquireUpdateLock(_ context.Context, missionID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scores[missionID]
	if !ok {
		return ErrNotFound
	}
	if s.IsUpdating() {
		return ErrConflict
	}
	s.TaskUpdating = &taskID
	return nil
}

func (m *memScores) ReleaseUpdateLock(_ context.Context, missionID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scores[missionID]
	if !ok {
		return ErrNotFound
	}
	if s.TaskUpdating == nil || *s.TaskUpdating != taskID {
		return nil
	}
	s.TaskUpdating = nil
	return nil
}

func (m *memScores) get(missionID string) types.MissionScore {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.scores[missionID]
}

type fakeSource struct {
	shape geometry.Shape
	err   error
	calls int
}

func (f *fakeSource) ImageShape(_ context.Context, _, _, _ string) (geometry.Shape, error) {
	f.calls++
	return f.shape, f.err
}

var errStorage = errors.New("storage down")

// fixtures

func square(x0, y0, x1, y1 int) geometry.Contour {
	return geometry.Contour{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func fptr(v float64) *float64 { return &v }

func defect(class types.DefectClass, conf float64, c geometry.Contour) types.DefectPolygon {
	return types.DefectPolygon{Points: c, DefectClass: class, ConfidenceScore: conf}
}

// roofImage is a 454x496 image (2x2 score tiles) whose roof covers the whole frame.
func roofImage(missionID, name string, score float64, defects ...types.DefectPolygon) types.MissionImage {
	return types.MissionImage{
		MissionID: missionID,
		ImageName: name,
		RoofMask: &types.RoofMask{
			Shape:   []int{454, 496},
			Dtype:   "uint8",
			Contour: []geometry.Contour{square(0, 0, 495, 453)},
		},
		Defects:   types.Defects{Polygons: defects},
		Score:     score,
		ImageType: types.ImageMLProcessed,
	}
}

// topLeft lies in the first of the four tiles of roofImage.
var topLeft = square(10, 10, 50, 50)

// bottomRight lies in the last of the four tiles of roofImage.
var bottomRight = square(300, 300, 350, 350)
