package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ndrake454/QuizLight-sub001/internal/apperr"
	"github.com/ndrake454/QuizLight-sub001/internal/models"

	"gorm.io/gorm"
)

// LedgerService records answers. The unique index on (participant, question)
// is the real duplicate guard: a pre-check alone would race under concurrent
// double-submits, so the insert itself decides who wins.
type LedgerService struct {
	db      *gorm.DB
	scoring *ScoringService
	bank    *BankService
}

func NewLedgerService(db *gorm.DB, scoring *ScoringService, bank *BankService) *LedgerService {
	return &LedgerService{db: db, scoring: scoring, bank: bank}
}

// SubmitResult is what the participant sees right after answering.
type SubmitResult struct {
	IsCorrect  bool `json:"is_correct"`
	Points     int  `json:"points"`
	TotalScore int  `json:"total_score"`
}

// Submit validates, scores and persists one answer, then updates the
// participant's aggregates, all in a single transaction. On any failure
// nothing is persisted.
func (s *LedgerService) Submit(sessionID uint, playerToken string, questionID uint, sub Submission) (*SubmitResult, error) {
	var result SubmitResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session models.Session
		if err := tx.First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("session not found")
			}
			return apperr.Internal("failed to load session", err)
		}
		if session.Status != models.SessionStatusInProgress {
			return apperr.Conflict("session is not active")
		}

		var participant models.Participant
		err := tx.Where("session_id = ? AND player_token = ?", sessionID, playerToken).
			First(&participant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("participant not found in session")
		}
		if err != nil {
			return apperr.Internal("failed to load participant", err)
		}

		var active models.SessionQuestion
		err = tx.Where("session_id = ? AND status = ?", sessionID, models.QuestionStatusActive).
			First(&active).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && active.QuestionID != questionID) {
			return apperr.Conflict("question is not active")
		}
		if err != nil {
			return apperr.Internal("failed to load active question", err)
		}

		question, err := s.bank.Question(questionID)
		if err != nil {
			return err
		}
		if question.Type == models.QuestionTypeSingleChoice && sub.OptionID != nil {
			if !optionBelongs(*sub.OptionID, question.Options) {
				return apperr.Validation("invalid option for this question")
			}
		}

		scored := s.scoring.Score(question, sub, session.SecondsPerQuestion)

		answer := models.Answer{
			ParticipantID: participant.ID,
			SessionID:     sessionID,
			QuestionID:    questionID,
			OptionID:      sub.OptionID,
			TextResponse:  sub.Text,
			IsCorrect:     scored.IsCorrect,
			Points:        scored.Points,
			TimeTaken:     scored.TimeTaken,
			CreatedAt:     time.Now(),
		}
		if err := tx.Create(&answer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("already answered")
			}
			return apperr.Internal("failed to record answer", err)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"score":          gorm.Expr("score + ?", scored.Points),
			"total_count":    gorm.Expr("total_count + 1"),
			"last_active_at": now,
		}
		if scored.IsCorrect {
			updates["correct_count"] = gorm.Expr("correct_count + 1")
		}
		if scored.Points > 0 {
			updates["last_scored_at"] = now
		}
		err = tx.Model(&models.Participant{}).
			Where("id = ?", participant.ID).
			Updates(updates).Error
		if err != nil {
			return apperr.Internal("failed to update participant", err)
		}

		payload := fmt.Sprintf(`{"points":%d}`, scored.Points)
		if err := recordEvent(tx, sessionID, models.EventScoreUpdated, &questionID, &participant.ID, payload); err != nil {
			return apperr.Internal("failed to record event", err)
		}

		var updated models.Participant
		if err := tx.First(&updated, participant.ID).Error; err != nil {
			return apperr.Internal("failed to reload participant", err)
		}

		result = SubmitResult{
			IsCorrect:  scored.IsCorrect,
			Points:     scored.Points,
			TotalScore: updated.Score,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// HasAnswered reports whether the participant already has an answer for the
// question. Read-only, used by the polling endpoints.
func (s *LedgerService) HasAnswered(participantID, questionID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.Answer{}).
		Where("participant_id = ? AND question_id = ?", participantID, questionID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Internal("failed to check answer", err)
	}
	return count > 0, nil
}

func optionBelongs(optionID uint, options []models.Option) bool {
	for _, o := range options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}
