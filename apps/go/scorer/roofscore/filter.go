package roofscore

import (
	"roofscore/apps/go/scorer/types"
)

// KeepDefect reports whether a defect passes the confidence thresholds. Without settings, or when
// no threshold applies to the defect's class, the defect is kept.
func KeepDefect(d *types.DefectPolygon, settings *types.ThresholdSettings) bool {
	threshold := settings.Resolve(d.DefectClass)
	if threshold == nil {
		return true
	}
	return d.ConfidenceScore >= *threshold
}

// FilterDefects returns the defects passing KeepDefect, in their original order.
func FilterDefects(defects []types.DefectPolygon, settings *types.ThresholdSettings) []types.DefectPolygon {
	if settings == nil {
		return defects
	}
	out := make([]types.DefectPolygon, 0, len(defects))
	for i := range defects {
		if KeepDefect(&defects[i], settings) {
			out = append(out, defects[i])
		}
	}
	return out
}
