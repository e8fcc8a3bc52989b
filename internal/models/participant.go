package models

import "time"

type Participant struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionID    uint      `gorm:"not null;uniqueIndex:idx_session_player" json:"session_id"`
	PlayerToken  string    `gorm:"size:64;not null;uniqueIndex:idx_session_player" json:"-"`
	DisplayName  string    `gorm:"size:100;not null" json:"display_name"`
	Score        int       `gorm:"not null;default:0" json:"score"`
	CorrectCount int       `gorm:"not null;default:0" json:"correct_count"`
	TotalCount   int       `gorm:"not null;default:0" json:"total_count"`
	JoinedAt     time.Time `json:"joined_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	// LastScoredAt orders equal leaderboard scores: earliest to reach the
	// current score ranks first.
	LastScoredAt time.Time `json:"-"`
}
