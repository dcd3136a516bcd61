package types

import "time"

// SnapshotPayload is the content written by the persistence scheduler.
type SnapshotPayload struct {
	Profile     Profile       `json:"profile"`
	Progress    ProgressState `json:"progress"`
	Milestones  []string      `json:"milestones"`
	CurrentStep int           `json:"current_step"`
}

// PersistedSnapshot is the durable record of a session, keyed by session.
type PersistedSnapshot struct {
	Key       string          `json:"key"`
	Payload   SnapshotPayload `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// SnapshotKey returns the storage key used for a user's wizard draft.
func SnapshotKey(id Identity) string {
	return "profile-wizard:" + id.UserID.String()
}
