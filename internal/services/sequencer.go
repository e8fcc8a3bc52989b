package services

import (
	"errors"
	"time"

	"github.com/ndrake454/QuizLight-sub001/internal/apperr"
	"github.com/ndrake454/QuizLight-sub001/internal/models"

	"gorm.io/gorm"
)

// ErrQuestionsExhausted signals that a session has no pending questions left,
// so the caller should finalize the session.
var ErrQuestionsExhausted = errors.New("no pending questions remain")

// SequencerService is the only mutator of SessionQuestion.status. Every
// transition is a conditional single-row update so that two racing host
// calls cannot both move the same question.
type SequencerService struct{}

func NewSequencerService() *SequencerService {
	return &SequencerService{}
}

// ActivateNext promotes the lowest-position pending question to active and
// returns it. Returns ErrQuestionsExhausted when nothing is pending, or a
// conflict when a concurrent call won the activation.
func (s *SequencerService) ActivateNext(tx *gorm.DB, sessionID uint) (*models.SessionQuestion, error) {
	var next models.SessionQuestion
	err := tx.Where("session_id = ? AND status = ?", sessionID, models.QuestionStatusPending).
		Order("position ASC").
		First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestionsExhausted
	}
	if err != nil {
		return nil, apperr.Internal("failed to load next question", err)
	}

	now := time.Now()
	res := tx.Model(&models.SessionQuestion{}).
		Where("id = ? AND status = ?", next.ID, models.QuestionStatusPending).
		Updates(map[string]interface{}{
			"status":     models.QuestionStatusActive,
			"started_at": now,
		})
	if res.Error != nil {
		return nil, apperr.Internal("failed to activate question", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.Conflict("another question transition is in progress")
	}

	next.Status = models.QuestionStatusActive
	next.StartedAt = &now
	return &next, nil
}

// RetireActive completes the currently active question. Returns the number of
// rows moved, which is zero when no question was active (a racing call
// already retired it).
func (s *SequencerService) RetireActive(tx *gorm.DB, sessionID uint) (int64, error) {
	res := tx.Model(&models.SessionQuestion{}).
		Where("session_id = ? AND status = ?", sessionID, models.QuestionStatusActive).
		Updates(map[string]interface{}{
			"status":       models.QuestionStatusCompleted,
			"completed_at": time.Now(),
		})
	if res.Error != nil {
		return 0, apperr.Internal("failed to retire question", res.Error)
	}
	return res.RowsAffected, nil
}

// SkipRemaining marks every still-pending question as skipped, used when a
// session ends early.
func (s *SequencerService) SkipRemaining(tx *gorm.DB, sessionID uint) error {
	err := tx.Model(&models.SessionQuestion{}).
		Where("session_id = ? AND status = ?", sessionID, models.QuestionStatusPending).
		Updates(map[string]interface{}{
			"status":       models.QuestionStatusSkipped,
			"completed_at": time.Now(),
		}).Error
	if err != nil {
		return apperr.Internal("failed to skip remaining questions", err)
	}
	return nil
}

// Active returns the session's active question, or nil when none is.
func (s *SequencerService) Active(db *gorm.DB, sessionID uint) (*models.SessionQuestion, error) {
	var sq models.SessionQuestion
	err := db.Where("session_id = ? AND status = ?", sessionID, models.QuestionStatusActive).
		First(&sq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to load active question", err)
	}
	return &sq, nil
}
