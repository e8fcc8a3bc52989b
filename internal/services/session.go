package services

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ndrake454/QuizLight-sub001/internal/apperr"
	"github.com/ndrake454/QuizLight-sub001/internal/models"

	"gorm.io/gorm"
)

const (
	codeLength  = 6
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	minSecondsPerQuestion     = 5
	maxSecondsPerQuestion     = 120
	defaultSecondsPerQuestion = 20
)

// SessionService owns the session lifecycle: waiting -> in_progress ->
// completed -> closed. Question transitions are delegated to the sequencer;
// every status change is a conditional update so racing host calls (a
// double-click, a retried request) cannot both advance state.
type SessionService struct {
	db        *gorm.DB
	sequencer *SequencerService
	bank      *BankService
}

func NewSessionService(db *gorm.DB, sequencer *SequencerService, bank *BankService) *SessionService {
	return &SessionService{db: db, sequencer: sequencer, bank: bank}
}

// CreateSession snapshots the category's questions into pending
// SessionQuestions and opens a waiting session. A host with an open session
// must close it first.
func (s *SessionService) CreateSession(hostID, categoryID uint, name string, secondsPerQuestion int) (*SessionState, error) {
	if name == "" {
		return nil, apperr.Validation("session name is required")
	}
	if secondsPerQuestion == 0 {
		secondsPerQuestion = defaultSecondsPerQuestion
	}
	if secondsPerQuestion < minSecondsPerQuestion || secondsPerQuestion > maxSecondsPerQuestion {
		return nil, apperr.Validation(fmt.Sprintf("seconds per question must be between %d and %d",
			minSecondsPerQuestion, maxSecondsPerQuestion))
	}

	questions, err := s.bank.CategoryQuestions(categoryID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apperr.Validation("category has no questions")
	}

	var sessionID uint
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var host models.Host
		if err := tx.First(&host, hostID).Error; err != nil {
			return apperr.NotFound("host not found")
		}
		if host.CurrentSessionID != nil {
			return apperr.Conflict("close the current session before creating a new one")
		}

		session := models.Session{
			HostID:             hostID,
			Code:               s.generateUniqueCode(tx),
			Name:               name,
			SecondsPerQuestion: secondsPerQuestion,
			Status:             models.SessionStatusWaiting,
		}
		if err := tx.Create(&session).Error; err != nil {
			return apperr.Internal("failed to create session", err)
		}
		sessionID = session.ID

		for i, q := range questions {
			sq := models.SessionQuestion{
				SessionID:  session.ID,
				QuestionID: q.ID,
				Position:   i + 1,
				Status:     models.QuestionStatusPending,
			}
			if err := tx.Create(&sq).Error; err != nil {
				return apperr.Internal("failed to schedule question", err)
			}
		}

		if err := tx.Model(&host).Update("current_session_id", session.ID).Error; err != nil {
			return apperr.Internal("failed to update host", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetSession(sessionID)
}

// Start moves a waiting session to in_progress and activates the first
// pending question.
func (s *SessionService) Start(sessionID, hostID uint) (*SessionState, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.ownedSession(tx, sessionID, hostID)
		if err != nil {
			return err
		}
		if session.Status != models.SessionStatusWaiting {
			return apperr.Conflict("session is not waiting to start")
		}

		now := time.Now()
		res := tx.Model(&models.Session{}).
			Where("id = ? AND status = ?", sessionID, models.SessionStatusWaiting).
			Updates(map[string]interface{}{
				"status":     models.SessionStatusInProgress,
				"started_at": now,
			})
		if res.Error != nil {
			return apperr.Internal("failed to start session", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("session already started")
		}

		sq, err := s.sequencer.ActivateNext(tx, sessionID)
		if errors.Is(err, ErrQuestionsExhausted) {
			// Creation requires at least one question; an empty schedule
			// here means it was tampered with. Complete immediately.
			return s.completeSession(tx, sessionID)
		}
		if err != nil {
			return err
		}

		if err := recordEvent(tx, sessionID, models.EventSessionStarted, nil, nil, ""); err != nil {
			return apperr.Internal("failed to record event", err)
		}
		return recordEvent(tx, sessionID, models.EventQuestionActivated, &sq.QuestionID, nil, "")
	})
	if err != nil {
		return nil, err
	}

	return s.GetSession(sessionID)
}

// Next retires the active question and activates the following one, or
// completes the session when none remain. Exactly one of two racing calls
// succeeds; the loser gets a conflict.
func (s *SessionService) Next(sessionID, hostID uint) (*SessionState, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.ownedSession(tx, sessionID, hostID)
		if err != nil {
			return err
		}
		if session.Status != models.SessionStatusInProgress {
			return apperr.Conflict("session is not active")
		}

		retired, err := s.sequencer.RetireActive(tx, sessionID)
		if err != nil {
			return err
		}
		if retired == 0 {
			return apperr.Conflict("no active question to advance")
		}
		if err := recordEvent(tx, sessionID, models.EventQuestionRetired, nil, nil, ""); err != nil {
			return apperr.Internal("failed to record event", err)
		}

		sq, err := s.sequencer.ActivateNext(tx, sessionID)
		if errors.Is(err, ErrQuestionsExhausted) {
			return s.completeSession(tx, sessionID)
		}
		if err != nil {
			return err
		}
		return recordEvent(tx, sessionID, models.EventQuestionActivated, &sq.QuestionID, nil, "")
	})
	if err != nil {
		return nil, err
	}

	return s.GetSession(sessionID)
}

// End completes an in-progress session early: the active question is
// retired and every remaining pending question is skipped.
func (s *SessionService) End(sessionID, hostID uint) (*SessionState, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.ownedSession(tx, sessionID, hostID)
		if err != nil {
			return err
		}
		if session.Status != models.SessionStatusInProgress {
			return apperr.Conflict("session is not active")
		}

		if _, err := s.sequencer.RetireActive(tx, sessionID); err != nil {
			return err
		}
		return s.completeSession(tx, sessionID)
	})
	if err != nil {
		return nil, err
	}

	return s.GetSession(sessionID)
}

// Close is the terminal transition. The host's current-session pointer is
// cleared so a new session can be created; the row itself is retained.
func (s *SessionService) Close(sessionID, hostID uint) (*SessionState, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.ownedSession(tx, sessionID, hostID)
		if err != nil {
			return err
		}
		if session.Status != models.SessionStatusCompleted {
			return apperr.Conflict("session is not completed")
		}

		res := tx.Model(&models.Session{}).
			Where("id = ? AND status = ?", sessionID, models.SessionStatusCompleted).
			Update("status", models.SessionStatusClosed)
		if res.Error != nil {
			return apperr.Internal("failed to close session", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("session already closed")
		}

		err = tx.Model(&models.Host{}).
			Where("id = ? AND current_session_id = ?", hostID, sessionID).
			Update("current_session_id", nil).Error
		if err != nil {
			return apperr.Internal("failed to clear current session", err)
		}
		return recordEvent(tx, sessionID, models.EventSessionClosed, nil, nil, "")
	})
	if err != nil {
		return nil, err
	}

	return s.GetSession(sessionID)
}

func (s *SessionService) completeSession(tx *gorm.DB, sessionID uint) error {
	res := tx.Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, models.SessionStatusInProgress).
		Updates(map[string]interface{}{
			"status":       models.SessionStatusCompleted,
			"completed_at": time.Now(),
		})
	if res.Error != nil {
		return apperr.Internal("failed to complete session", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("session already completed")
	}

	if err := s.sequencer.SkipRemaining(tx, sessionID); err != nil {
		return err
	}
	return recordEvent(tx, sessionID, models.EventSessionCompleted, nil, nil, "")
}

func (s *SessionService) ownedSession(tx *gorm.DB, sessionID, hostID uint) (*models.Session, error) {
	var session models.Session
	if err := tx.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, apperr.Internal("failed to load session", err)
	}
	if session.HostID != hostID {
		return nil, apperr.Forbidden("only the session host can do this")
	}
	return &session, nil
}

// ByCode resolves a join code to its non-closed session.
func (s *SessionService) ByCode(code string) (*models.Session, error) {
	var session models.Session
	err := s.db.Where("code = ? AND status != ?", code, models.SessionStatusClosed).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("session not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load session", err)
	}
	return &session, nil
}

// GetSession returns the full state a host dashboard renders: the session
// row, question progress and the active question with its answer count.
func (s *SessionService) GetSession(sessionID uint) (*SessionState, error) {
	var session models.Session
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, apperr.Internal("failed to load session", err)
	}

	state := &SessionState{Session: session}

	var total int64
	s.db.Model(&models.SessionQuestion{}).Where("session_id = ?", sessionID).Count(&total)
	state.TotalQuestions = int(total)

	active, err := s.sequencer.Active(s.db, sessionID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		question, err := s.bank.Question(active.QuestionID)
		if err != nil {
			return nil, err
		}
		state.CurrentQuestion = s.bank.View(question, active.Position)
		state.QuestionStartedAt = active.StartedAt

		var answered int64
		s.db.Model(&models.Answer{}).
			Where("session_id = ? AND question_id = ?", sessionID, active.QuestionID).
			Count(&answered)
		state.AnswerCount = int(answered)
	}

	return state, nil
}

// ListSessions returns summaries of every session the host has run, newest
// first.
func (s *SessionService) ListSessions(hostID uint) ([]SessionSummary, error) {
	var sessions []models.Session
	err := s.db.Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, apperr.Internal("failed to list sessions", err)
	}

	result := make([]SessionSummary, len(sessions))
	for i, sess := range sessions {
		var participantCount int64
		s.db.Model(&models.Participant{}).Where("session_id = ?", sess.ID).Count(&participantCount)

		result[i] = SessionSummary{
			ID:               sess.ID,
			Name:             sess.Name,
			Code:             sess.Code,
			Status:           sess.Status,
			ParticipantCount: int(participantCount),
			CreatedAt:        sess.CreatedAt,
		}
	}
	return result, nil
}

func (s *SessionService) generateUniqueCode(tx *gorm.DB) string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeCharset[rand.Intn(len(codeCharset))]
		}
		code := string(b)

		var count int64
		tx.Model(&models.Session{}).
			Where("code = ? AND status != ?", code, models.SessionStatusClosed).
			Count(&count)
		if count == 0 {
			return code
		}
	}
}

type SessionState struct {
	Session           models.Session `json:"session"`
	TotalQuestions    int            `json:"total_questions"`
	CurrentQuestion   *QuestionView  `json:"current_question,omitempty"`
	QuestionStartedAt *time.Time     `json:"question_started_at,omitempty"`
	AnswerCount       int            `json:"answer_count"`
}

type SessionSummary struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	Code             string    `json:"code"`
	Status           string    `json:"status"`
	ParticipantCount int       `json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
}
