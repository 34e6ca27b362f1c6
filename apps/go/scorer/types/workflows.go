package types

type UpdateMissionScoreParams struct {
	MissionID string           `json:"mission_id"`
	TaskID    string           `json:"task_id"`
	UserID    string           `json:"user_id"`
	UserEmail string           `json:"user_email"`
	Batch     ScoreUpdateBatch `json:"batch"`
}

type UpdateMissionScoreResults struct {
	MissionID   string             `json:"mission_id"`
	Status      UpdateStatus       `json:"status"`
	AvgScore    float64            `json:"avg_score"`
	ImageScores []ImageScoreResult `json:"image_scores"`
	ImageErrors []string           `json:"image_errors"`
	Synthesized []string           `json:"synthesized"`
	Notified    bool               `json:"notified"`
	Exported    []string           `json:"exported"`
}
