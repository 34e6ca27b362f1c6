package types

import (
	"time"

	"roofscore/packages/go/geometry"
	"roofscore/packages/go/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DefectClass string

const (
	DefectBackground                   DefectClass = "background"
	DefectPonding                      DefectClass = "ponding"
	DefectBallastDisplacement          DefectClass = "ballast_displacement"
	DefectRoofMold                     DefectClass = "mold_growing_on_roof"
	DefectCorrosion                    DefectClass = "corrosion"
	DefectWrinkledMembrane             DefectClass = "wrinkled_membrane"
	DefectWalkwayCrack                 DefectClass = "walkway_crack"
	DefectPatching                     DefectClass = "patching"
	DefectDebris                       DefectClass = "debris"
	DefectLowStepContrast              DefectClass = "LowStepContrast"
	DefectOverhangingVegetation        DefectClass = "overhanging_vegetation"
	DefectBlockedDrain                 DefectClass = "blocked_drain"
	DefectDamagedWalkways              DefectClass = "damaged_walkways"
	DefectStepsWithoutAdequateContrast DefectClass = "steps_without_adequate_contrast"
)

var DefectClasses = []DefectClass{
	DefectBackground, DefectPonding, DefectBallastDisplacement, DefectRoofMold, DefectCorrosion,
	DefectWrinkledMembrane, DefectWalkwayCrack, DefectPatching, DefectDebris, DefectLowStepContrast,
	DefectOverhangingVegetation, DefectBlockedDrain, DefectDamagedWalkways, DefectStepsWithoutAdequateContrast,
}

func (c DefectClass) Valid() bool {
	for _, k := range DefectClasses {
		if k == c {
			return true
		}
	}
	return false
}

type EnvClass string

const (
	EnvBackground EnvClass = "background"
	EnvCar        EnvClass = "car"
	EnvTree       EnvClass = "tree"
	EnvRoof       EnvClass = "roof"
	EnvGrass      EnvClass = "grass"
	EnvWalkway    EnvClass = "walkway"
	EnvRoad       EnvClass = "road"
)

func (c EnvClass) Valid() bool {
	switch c {
	case EnvBackground, EnvCar, EnvTree, EnvRoof, EnvGrass, EnvWalkway, EnvRoad:
		return true
	}
	return false
}

type ImageType string

const (
	ImageNoML        ImageType = "no_ml"
	ImageMLProcessed ImageType = "ml_processed"
)

// DefaultConfidenceScore is assumed for defects stored before confidence scores were recorded.
const DefaultConfidenceScore = 0.9

// ThresholdSettings filters defects by confidence. A per class threshold overrides the general one.
type ThresholdSettings struct {
	GeneralThreshold    *float64                `json:"general_threshold,omitempty" bson:"general_threshold,omitempty"`
	DefectTypeThreshold map[DefectClass]float64 `json:"defect_type_threshold,omitempty" bson:"defect_type_threshold,omitempty"`
}

// Resolve returns the threshold applying to the class, nil when none does.
func (t *ThresholdSettings) Resolve(class DefectClass) *float64 {
	if t == nil {
		return nil
	}
	if v, ok := t.DefectTypeThreshold[class]; ok {
		return &v
	}
	return t.GeneralThreshold
}

// IsSet reports whether any threshold value is configured.
func (t *ThresholdSettings) IsSet() bool {
	return t != nil && (t.GeneralThreshold != nil || t.DefectTypeThreshold != nil)
}

func (t *ThresholdSettings) Clone() *ThresholdSettings {
	if t == nil {
		return nil
	}
	out := &ThresholdSettings{}
	if t.GeneralThreshold != nil {
		v := *t.GeneralThreshold
		out.GeneralThreshold = &v
	}
	if t.DefectTypeThreshold != nil {
		out.DefectTypeThreshold = make(map[DefectClass]float64, len(t.DefectTypeThreshold))
		for k, v := range t.DefectTypeThreshold {
			out.DefectTypeThreshold[k] = v
		}
	}
	return out
}

type DefectPolygon struct {
	Points          geometry.Contour `json:"points" bson:"points"`
	DefectClass     DefectClass      `json:"defect_class" bson:"defect_class"`
	SurfaceClass    string           `json:"surface_class,omitempty" bson:"surface_class,omitempty"`
	ConfidenceScore float64          `json:"confidence_score" bson:"confidence_score"`
}

type Defects struct {
	Polygons []DefectPolygon `json:"polygons" bson:"polygons"`
}

func (d Defects) Clone() Defects {
	if d.Polygons == nil {
		return Defects{}
	}
	out := Defects{Polygons: make([]DefectPolygon, len(d.Polygons))}
	for i, p := range d.Polygons {
		p.Points = cloneContour(p.Points)
		out.Polygons[i] = p
	}
	return out
}

type RoofMask struct {
	Shape   []int              `json:"shape" bson:"shape"`
	Dtype   string             `json:"dtype" bson:"dtype"`
	Contour []geometry.Contour `json:"contour" bson:"contour"`
}

// GeometryShape returns the (height, width) of the mask.
func (r *RoofMask) GeometryShape() (geometry.Shape, error) {
	if r == nil || len(r.Shape) < 2 {
		return geometry.Shape{}, geometry.ErrInvalidShape
	}
	s := geometry.Shape{Height: r.Shape[0], Width: r.Shape[1]}
	return s, s.Validate()
}

func (r *RoofMask) Clone() *RoofMask {
	if r == nil {
		return nil
	}
	return &RoofMask{
		Shape:   append([]int(nil), r.Shape...),
		Dtype:   r.Dtype,
		Contour: cloneContours(r.Contour),
	}
}

type EnvironmentContour struct {
	EnvClass EnvClass         `json:"env_class" bson:"env_class"`
	Points   geometry.Contour `json:"points" bson:"points"`
}

// MissionImage is the stored, original state of one image of a mission version. The effective
// state is this record with the mission's update history projected on top.
type MissionImage struct {
	ID                primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	MissionID         string               `json:"mission_id" bson:"mission_id"`
	ImageName         string               `json:"img_name" bson:"img_name"`
	RoofMask          *RoofMask            `json:"roof_mask,omitempty" bson:"roof_mask,omitempty"`
	EnvContours       []EnvironmentContour `json:"env_contours" bson:"env_contours"`
	Defects           Defects              `json:"defects" bson:"defects"`
	ThresholdSettings *ThresholdSettings   `json:"threshold_settings,omitempty" bson:"threshold_settings,omitempty"`
	Score             float64              `json:"score" bson:"score"`
	EmcRcif           string               `json:"emc_rcif,omitempty" bson:"emc_rcif,omitempty"`
	ImageType         ImageType            `json:"img_type,omitempty" bson:"img_type,omitempty"`
}

func (m *MissionImage) Stem() string {
	return utils.ImageStem(m.ImageName)
}

// Clone returns a deep copy, so projections never alias stored records.
func (m *MissionImage) Clone() MissionImage {
	out := *m
	out.RoofMask = m.RoofMask.Clone()
	out.Defects = m.Defects.Clone()
	out.ThresholdSettings = m.ThresholdSettings.Clone()
	out.EnvContours = cloneEnvContours(m.EnvContours)
	return out
}

// Summary strips the geometry, for listings.
func (m *MissionImage) Summary() MissionImage {
	out := *m
	out.RoofMask = nil
	out.EnvContours = nil
	out.Defects = Defects{Polygons: make([]DefectPolygon, len(m.Defects.Polygons))}
	for i, p := range m.Defects.Polygons {
		p.Points = nil
		out.Defects.Polygons[i] = p
	}
	return out
}

// ImageScoreUpdate is one image's edit inside an update batch. Once scored it is stored as part of a
// ScoreUpdateRecord and never modified again.
type ImageScoreUpdate struct {
	ImageName         string               `json:"img_name" bson:"img_name"`
	Defects           Defects              `json:"defects" bson:"defects"`
	RoofContours      []geometry.Contour   `json:"roof_contours,omitempty" bson:"roof_contours,omitempty"`
	EnvContours       []EnvironmentContour `json:"env_contours,omitempty" bson:"env_contours,omitempty"`
	ThresholdSettings *ThresholdSettings   `json:"threshold_settings,omitempty" bson:"threshold_settings,omitempty"`
	Score             float64              `json:"score" bson:"score"`
}

func (u *ImageScoreUpdate) Stem() string {
	return utils.ImageStem(u.ImageName)
}

func (u *ImageScoreUpdate) Clone() ImageScoreUpdate {
	out := *u
	out.Defects = u.Defects.Clone()
	out.RoofContours = cloneContours(u.RoofContours)
	out.EnvContours = cloneEnvContours(u.EnvContours)
	out.ThresholdSettings = u.ThresholdSettings.Clone()
	return out
}

// ScoreUpdateBatch is the input of a score recompute.
type ScoreUpdateBatch struct {
	ImageUpdates             []ImageScoreUpdate `json:"image_updates"`
	ProjectThresholdSettings *ThresholdSettings `json:"project_threshold_settings,omitempty"`
}

// RescoredImage is the score an image got from a project threshold change, without an explicit
// update of its own in the same record.
type RescoredImage struct {
	ImageName string  `json:"img_name" bson:"img_name"`
	Score     float64 `json:"score" bson:"score"`
}

type ScoreUpdateRecord struct {
	ImageUpdates             []ImageScoreUpdate `json:"image_updates" bson:"image_updates"`
	ImageScores              []RescoredImage    `json:"image_scores,omitempty" bson:"image_scores,omitempty"`
	ProjectThresholdSettings *ThresholdSettings `json:"project_threshold_settings,omitempty" bson:"project_threshold_settings,omitempty"`
	AvgScore                 float64            `json:"avg_score" bson:"avg_score"`
	Time                     time.Time          `json:"time" bson:"time"`
}

type MissionScore struct {
	ID                       primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	MissionID                string              `json:"mission_id" bson:"mission_id"`
	AvgScore                 float64             `json:"avg_score" bson:"avg_score"`
	Updates                  []ScoreUpdateRecord `json:"updates" bson:"updates"`
	ProjectThresholdSettings *ThresholdSettings  `json:"project_threshold_settings,omitempty" bson:"project_threshold_settings,omitempty"`
	EmcRcif                  string              `json:"emc_rcif,omitempty" bson:"emc_rcif,omitempty"`
	SubmittedDate            *time.Time          `json:"submitted_date,omitempty" bson:"submitted_date,omitempty"`
	TaskUpdating             *string             `json:"task_updating,omitempty" bson:"task_updating,omitempty"`
}

// LatestUpdate returns the most recent update record, nil without history.
func (s *MissionScore) LatestUpdate() *ScoreUpdateRecord {
	if len(s.Updates) == 0 {
		return nil
	}
	return &s.Updates[len(s.Updates)-1]
}

// EffectiveAvgScore is the average of the latest update, or the initial average without history.
func (s *MissionScore) EffectiveAvgScore() float64 {
	if u := s.LatestUpdate(); u != nil {
		return u.AvgScore
	}
	return s.AvgScore
}

// EffectiveProjectThreshold returns the thresholds of the latest update that changed them, falling
// back to the mission's own settings.
func (s *MissionScore) EffectiveProjectThreshold() *ThresholdSettings {
	for i := len(s.Updates) - 1; i >= 0; i-- {
		if s.Updates[i].ProjectThresholdSettings.IsSet() {
			return s.Updates[i].ProjectThresholdSettings
		}
	}
	return s.ProjectThresholdSettings
}

func (s *MissionScore) IsUpdating() bool {
	return s.TaskUpdating != nil && *s.TaskUpdating != ""
}

func cloneContour(c geometry.Contour) geometry.Contour {
	if c == nil {
		return nil
	}
	return append(geometry.Contour(nil), c...)
}

func cloneContours(cs []geometry.Contour) []geometry.Contour {
	if cs == nil {
		return nil
	}
	out := make([]geometry.Contour, len(cs))
	for i, c := range cs {
		out[i] = cloneContour(c)
	}
	return out
}

func cloneEnvContours(cs []EnvironmentContour) []EnvironmentContour {
	if cs == nil {
		return nil
	}
	out := make([]EnvironmentContour, len(cs))
	for i, c := range cs {
		out[i] = EnvironmentContour{EnvClass: c.EnvClass, Points: cloneContour(c.Points)}
	}
	return out
}
