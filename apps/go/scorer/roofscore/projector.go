package roofscore

import (
	"roofscore/apps/go/scorer/types"
	"roofscore/packages/go/geometry"
	"roofscore/packages/go/utils"
)

// BoundingRoofMask builds a roof mask for an image stored without one, sized to hold the first
// contour.
func BoundingRoofMask(contours []geometry.Contour) *types.RoofMask {
	shape := []int{0, 0}
	if len(contours) > 0 {
		if b, ok := geometry.Bound(contours[0]); ok {
			shape = []int{int(b.Max[1]) + 1, int(b.Max[0]) + 1}
		}
	}
	return &types.RoofMask{Shape: shape, Dtype: "uint8", Contour: contours}
}

// latestState returns the most recent explicit update of the image with the given stem and, when a
// project threshold change rescored the image after that update, the newer score. In a single
// record the explicit update wins.
func latestState(stem string, history []types.ScoreUpdateRecord) (*types.ImageScoreUpdate, *float64) {
	var rescored *float64
	for i := len(history) - 1; i >= 0; i-- {
		updates := history[i].ImageUpdates
		for j := range updates {
			if updates[j].Stem() == stem {
				return &updates[j], rescored
			}
		}
		if rescored != nil {
			continue
		}
		for _, r := range history[i].ImageScores {
			if utils.ImageStem(r.ImageName) == stem {
				score := r.Score
				rescored = &score
				break
			}
		}
	}
	return nil, rescored
}

// ApplyImageUpdate overlays an update on a copy of the image. Defects and score are always taken
// from the update; roof contours, environment contours and thresholds only when present.
func ApplyImageUpdate(image types.MissionImage, u *types.ImageScoreUpdate) types.MissionImage {
	out := image.Clone()
	edit := u.Clone()

	out.Defects = edit.Defects
	out.Score = edit.Score
	if len(edit.RoofContours) > 0 {
		if out.RoofMask == nil {
			out.RoofMask = BoundingRoofMask(edit.RoofContours)
		} else {
			out.RoofMask.Contour = edit.RoofContours
		}
	}
	if len(edit.EnvContours) > 0 {
		out.EnvContours = edit.EnvContours
	}
	if edit.ThresholdSettings != nil {
		out.ThresholdSettings = edit.ThresholdSettings
	}
	return out
}

// Project returns the effective state of the images: copies of the stored images with the most
// recent matching update of the history applied, and the score of a later project threshold
// rescoring on top. Stored images are never modified.
func Project(images []types.MissionImage, history []types.ScoreUpdateRecord) []types.MissionImage {
	out := make([]types.MissionImage, len(images))
	for i := range images {
		u, rescored := latestState(images[i].Stem(), history)
		if u != nil {
			out[i] = ApplyImageUpdate(images[i], u)
		} else {
			out[i] = images[i].Clone()
		}
		if rescored != nil {
			out[i].Score = *rescored
		}
	}
	return out
}
