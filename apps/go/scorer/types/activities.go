package types

//------------------------------------------------------------------------------
// Recompute Score
//------------------------------------------------------------------------------

type RecomputeScoreParams struct {
	MissionID string           `json:"mission_id"`
	Batch     ScoreUpdateBatch `json:"batch"`
}

type ImageScoreResult struct {
	ImageName string  `json:"img_name"`
	Score     float64 `json:"score"`
}

type RecomputeScoreResults struct {
	AvgScore    float64            `json:"avg_score"`
	ImageScores []ImageScoreResult `json:"image_scores"`
	ImageErrors []string           `json:"image_errors"`
	Synthesized []string           `json:"synthesized"`
}

//------------------------------------------------------------------------------
// Release Score Lock
//------------------------------------------------------------------------------

type ReleaseScoreLockParams struct {
	MissionID string       `json:"mission_id"`
	TaskID    string       `json:"task_id"`
	Status    UpdateStatus `json:"status"`
}

type ReleaseScoreLockResults struct {
	Released bool `json:"released"`
}

//------------------------------------------------------------------------------
// Notify Score Updated
//------------------------------------------------------------------------------

type NotifyScoreUpdatedParams struct {
	MissionID    string   `json:"mission_id"`
	TaskID       string   `json:"task_id"`
	UserEmail    string   `json:"user_email"`
	AvgScore     float64  `json:"avg_score"`
	ImageUpdates int      `json:"image_updates"`
	ImageErrors  []string `json:"image_errors"`
}

type NotifyScoreUpdatedResults struct {
	Mailed    bool `json:"mailed"`
	Published bool `json:"published"`
}

//------------------------------------------------------------------------------
// Export Score CSV
//------------------------------------------------------------------------------

type ExportScoreCsvParams struct {
	MissionID string `json:"mission_id"`
}

type ExportScoreCsvResults struct {
	Keys []string `json:"keys"`
}
