package models

import "time"

type Host struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Username         string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash     string    `gorm:"size:255;not null" json:"-"`
	CurrentSessionID *uint     `json:"current_session_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
