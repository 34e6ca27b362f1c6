package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

var ErrValidation = errors.New("validation failed")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func validUnit(v float64) bool {
	return v >= 0 && v <= 1
}

func (t *ThresholdSettings) Validate() error {
	if t == nil {
		return nil
	}
	if t.GeneralThreshold != nil && !validUnit(*t.GeneralThreshold) {
		return invalid("general_threshold %v out of [0, 1]", *t.GeneralThreshold)
	}
	for class, v := range t.DefectTypeThreshold {
		if !class.Valid() {
			return invalid("unknown defect class %q in defect_type_threshold", class)
		}
		if !validUnit(v) {
			return invalid("threshold %v for %s out of [0, 1]", v, class)
		}
	}
	return nil
}

// Validate checks the labels of a defect. Its points are checked when the defect is drawn, so a
// malformed polygon only fails the image it belongs to.
func (d *DefectPolygon) Validate() error {
	if !d.DefectClass.Valid() {
		return invalid("unknown defect class %q", d.DefectClass)
	}
	if !validUnit(d.ConfidenceScore) {
		return invalid("confidence_score %v out of [0, 1]", d.ConfidenceScore)
	}
	return nil
}

func (u *ImageScoreUpdate) Validate() error {
	if u.Stem() == "" {
		return invalid("img_name is required")
	}
	for i := range u.Defects.Polygons {
		if err := u.Defects.Polygons[i].Validate(); err != nil {
			return fmt.Errorf("%s defect %d: %w", u.ImageName, i, err)
		}
	}
	for i, c := range u.EnvContours {
		if !c.EnvClass.Valid() {
			return invalid("%s env contour %d: unknown env class %q", u.ImageName, i, c.EnvClass)
		}
	}
	if err := u.ThresholdSettings.Validate(); err != nil {
		return fmt.Errorf("%s: %w", u.ImageName, err)
	}
	return nil
}

// IsEmpty reports a batch carrying neither image updates nor project thresholds.
func (b *ScoreUpdateBatch) IsEmpty() bool {
	return len(b.ImageUpdates) == 0 && b.ProjectThresholdSettings == nil
}

func (b *ScoreUpdateBatch) Validate() error {
	if b.IsEmpty() {
		return invalid("update has neither image updates nor project threshold settings")
	}
	if err := b.ProjectThresholdSettings.Validate(); err != nil {
		return fmt.Errorf("project_threshold_settings: %w", err)
	}
	seen := make(map[string]struct{}, len(b.ImageUpdates))
	for i := range b.ImageUpdates {
		u := &b.ImageUpdates[i]
		if err := u.Validate(); err != nil {
			return err
		}
		if _, dup := seen[u.Stem()]; dup {
			return invalid("image %s updated twice in the same batch", u.Stem())
		}
		seen[u.Stem()] = struct{}{}
	}
	return nil
}

func (m *MissionImage) Validate() error {
	if m.MissionID == "" {
		return invalid("mission_id is required")
	}
	if m.Stem() == "" {
		return invalid("img_name is required")
	}
	if m.RoofMask != nil {
		if _, err := m.RoofMask.GeometryShape(); err != nil {
			return invalid("roof_mask shape %v: %v", m.RoofMask.Shape, err)
		}
	}
	for i := range m.Defects.Polygons {
		if err := m.Defects.Polygons[i].Validate(); err != nil {
			return fmt.Errorf("defect %d: %w", i, err)
		}
	}
	return m.ThresholdSettings.Validate()
}

// UnmarshalJSON fills the default confidence score for payloads that omit it.
func (d *DefectPolygon) UnmarshalJSON(b []byte) error {
	type Alias DefectPolygon
	defaultValues := &Alias{ConfidenceScore: DefaultConfidenceScore}
	if err := json.Unmarshal(b, defaultValues); err != nil {
		return err
	}
	*d = DefectPolygon(*defaultValues)
	return nil
}

// UnmarshalBSON fills the default confidence score for documents stored without it.
func (d *DefectPolygon) UnmarshalBSON(b []byte) error {
	type Alias DefectPolygon
	defaultValues := &Alias{ConfidenceScore: DefaultConfidenceScore}
	if err := bson.Unmarshal(b, defaultValues); err != nil {
		return err
	}
	*d = DefectPolygon(*defaultValues)
	return nil
}
