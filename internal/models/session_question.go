package models

import "time"

// SessionQuestion is one question as scheduled within a session, snapshotted
// from the category pool at creation time. Its lifecycle is independent of
// the underlying bank question.
type SessionQuestion struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SessionID   uint       `gorm:"not null;uniqueIndex:idx_session_position" json:"session_id"`
	QuestionID  uint       `gorm:"not null" json:"question_id"`
	Position    int        `gorm:"not null;uniqueIndex:idx_session_position" json:"position"`
	Status      string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

const (
	QuestionStatusPending   = "pending"
	QuestionStatusActive    = "active"
	QuestionStatusCompleted = "completed"
	QuestionStatusSkipped   = "skipped"
)
