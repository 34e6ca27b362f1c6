package types

import (
	"time"

	"roofscore/packages/go/vda"
)

// UpdateStatus tracks a score update from the point of view of the user who submitted it.
type UpdateStatus string

const (
	UpdateStatusPending UpdateStatus = "PENDING"
	UpdateStatusSuccess UpdateStatus = "SUCCESS"
	UpdateStatusFailure UpdateStatus = "FAILURE"
)

// Done reports a status the user must be notified of.
func (s UpdateStatus) Done() bool {
	return s == UpdateStatusSuccess || s == UpdateStatusFailure
}

// UpdateStatusRecord is stored per mission version, for the last user who submitted an update.
type UpdateStatusRecord struct {
	VersionID    string       `json:"version_id" bson:"version_id"`
	UserID       string       `json:"user_id" bson:"user_id"`
	UserEmail    string       `json:"user_email,omitempty" bson:"user_email,omitempty"`
	TaskID       string       `json:"task_id" bson:"task_id"`
	UpdateStatus UpdateStatus `json:"update_status" bson:"update_status"`
	UpdatedAt    time.Time    `json:"updated_at" bson:"updated_at"`
}

// StatusNotification is a finished update enriched with the mission metadata.
type StatusNotification struct {
	UpdateStatusRecord
	MissionData *vda.MissionDetail `json:"mission_data"`
}
