package types

var (
	MissionImagesCollection     = "mission_images"
	MissionScoresCollection     = "mission_scores"
	UpdateScoreStatusCollection = "mission_update_score_status"
)
