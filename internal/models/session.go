package models

import "time"

type Session struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	HostID             uint       `gorm:"not null;index" json:"host_id"`
	Code               string     `gorm:"size:6;index" json:"code"`
	Name               string     `gorm:"size:255;not null" json:"name"`
	SecondsPerQuestion int        `gorm:"not null;default:20" json:"seconds_per_question"`
	Status             string     `gorm:"size:20;not null;default:'waiting'" json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

const (
	SessionStatusWaiting    = "waiting"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusClosed     = "closed"
)
