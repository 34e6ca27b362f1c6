package roofscore

import (
	"errors"
	"fmt"

	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/geometry"
)

// ScoreClasses are the defect classes that lower a roof score. Other classes are kept on the image
// but never drawn.
var ScoreClasses = map[types.DefectClass]struct{}{
	types.DefectBallastDisplacement:   {},
	types.DefectBlockedDrain:          {},
	types.DefectCorrosion:             {},
	types.DefectDebris:                {},
	types.DefectRoofMold:              {},
	types.DefectOverhangingVegetation: {},
	types.DefectPatching:              {},
	types.DefectPonding:               {},
	types.DefectWrinkledMembrane:      {},
}

var ErrMissingRoofMask = errors.New("image has no roof mask")

// Result is the outcome of scoring one roof.
type Result struct {
	Score       float64 `json:"score"`
	RoofTiles   int     `json:"roof_tiles"`
	DefectTiles int     `json:"defect_tiles"`
}

// Scorer computes roof health as the share of roof tiles free of defects.
type Scorer struct {
	ScaleW int
	ScaleH int
}

func NewScorer(scaleW, scaleH int) *Scorer {
	if scaleW <= 0 {
		scaleW = DefaultScaleW
	}
	if scaleH <= 0 {
		scaleH = DefaultScaleH
	}
	return &Scorer{ScaleW: scaleW, ScaleH: scaleH}
}

// Score filters the defects by the thresholds, draws the scoring classes, keeps the part lying on
// the roof and counts roof tiles and defect tiles. A roof without any roof tile scores 0.
// The result is not clamped.
func (s *Scorer) Score(roof *geometry.Mask, defects []types.DefectPolygon, settings *types.ThresholdSettings) (Result, error) {
	defectsMask := geometry.NewMask(roof.Shape)
	for i, d := range FilterDefects(defects, settings) {
		if _, ok := ScoreClasses[d.DefectClass]; !ok {
			continue
		}
		if err := defectsMask.Fill(d.Points); err != nil {
			return Result{}, fmt.Errorf("defect %d (%s): %w", i, d.DefectClass, err)
		}
	}
	roofDefects, err := roof.And(defectsMask)
	if err != nil {
		return Result{}, err
	}

	tiles, err := TileGrid(roof.Shape, s.ScaleW, s.ScaleH)
	if err != nil {
		return Result{}, err
	}

	var r Result
	for _, t := range tiles {
		if roof.AnyIn(t.X, t.Y, t.Height, t.Width) {
			r.RoofTiles++
		}
		if roofDefects.AnyIn(t.X, t.Y, t.Height, t.Width) {
			r.DefectTiles++
		}
	}
	if r.RoofTiles > 0 {
		r.Score = float64(r.RoofTiles-r.DefectTiles) / float64(r.RoofTiles)
	}
	return r, nil
}

// RoofMask rasterizes the roof of an image. Non empty contours replace the image's own roof contour;
// an image without roof mask is then sized from their bounding box.
func RoofMask(image *types.MissionImage, contours []geometry.Contour) (*geometry.Mask, error) {
	roof := image.RoofMask
	if roof == nil && len(contours) > 0 {
		roof = BoundingRoofMask(contours)
	}
	if roof == nil {
		return nil, ErrMissingRoofMask
	}
	shape, err := roof.GeometryShape()
	if err != nil {
		return nil, err
	}
	if len(contours) == 0 {
		contours = roof.Contour
	}
	return geometry.Rasterize(shape, contours)
}

// ScoreImage scores an image's effective state with its own thresholds or the project's.
func (s *Scorer) ScoreImage(image *types.MissionImage, project *types.ThresholdSettings) (Result, error) {
	mask, err := RoofMask(image, nil)
	if err != nil {
		return Result{}, err
	}
	settings := image.ThresholdSettings
	if settings == nil {
		settings = project
	}
	return s.Score(mask, image.Defects.Polygons, settings)
}

// ScoreUpdate scores an image edit on top of the image it targets.
func (s *Scorer) ScoreUpdate(image *types.MissionImage, update *types.ImageScoreUpdate, project *types.ThresholdSettings) (Result, error) {
	mask, err := RoofMask(image, update.RoofContours)
	if err != nil {
		return Result{}, err
	}
	settings := update.ThresholdSettings
	if settings == nil {
		settings = project
	}
	return s.Score(mask, update.Defects.Polygons, settings)
}
