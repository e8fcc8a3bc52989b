package models

import "time"

type Answer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParticipantID uint      `gorm:"not null;uniqueIndex:idx_answer_unique" json:"participant_id"`
	SessionID     uint      `gorm:"not null;index" json:"session_id"`
	QuestionID    uint      `gorm:"not null;uniqueIndex:idx_answer_unique" json:"question_id"`
	OptionID      *uint     `json:"option_id,omitempty"`
	TextResponse  string    `gorm:"size:500" json:"text_response,omitempty"`
	IsCorrect     bool      `gorm:"not null" json:"is_correct"`
	Points        int       `gorm:"not null;default:0" json:"points"`
	TimeTaken     int       `gorm:"not null;default:0" json:"time_taken"`
	CreatedAt     time.Time `json:"created_at"`
}
