package models

import "time"

// SessionEvent is one append-only mutation record for a session. Pollers read
// events newer than their last-poll cursor instead of diffing full state.
type SessionEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     uint      `gorm:"not null;index:idx_event_session_time" json:"session_id"`
	Type          string    `gorm:"size:30;not null" json:"type"`
	QuestionID    *uint     `json:"question_id,omitempty"`
	ParticipantID *uint     `json:"participant_id,omitempty"`
	Payload       string    `gorm:"size:500" json:"payload,omitempty"`
	CreatedAt     time.Time `gorm:"index:idx_event_session_time" json:"created_at"`
}

const (
	EventSessionStarted    = "session_started"
	EventSessionCompleted  = "session_completed"
	EventSessionClosed     = "session_closed"
	EventQuestionActivated = "question_activated"
	EventQuestionRetired   = "question_retired"
	EventScoreUpdated      = "score_updated"
	EventParticipantJoined = "participant_joined"
)
