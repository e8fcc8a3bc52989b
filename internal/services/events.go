package services

import (
	"time"

	"github.com/ndrake454/QuizLight-sub001/internal/models"

	"gorm.io/gorm"
)

// recordEvent appends one mutation record inside the caller's transaction so
// the event log never disagrees with the state it describes.
func recordEvent(tx *gorm.DB, sessionID uint, eventType string, questionID, participantID *uint, payload string) error {
	return tx.Create(&models.SessionEvent{
		SessionID:     sessionID,
		Type:          eventType,
		QuestionID:    questionID,
		ParticipantID: participantID,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}).Error
}
