package services

import (
	"context"
	"errors"
	"time"

	"github.com/ndrake454/QuizLight-sub001/internal/apperr"
	"github.com/ndrake454/QuizLight-sub001/internal/models"
	"github.com/ndrake454/QuizLight-sub001/internal/pollstore"

	"gorm.io/gorm"
)

// SyncService answers the polling endpoints. Clients report their last-known
// state and the server diffs it against the authoritative rows; any client
// converges within one poll interval of a mutation.
type SyncService struct {
	db        *gorm.DB
	sequencer *SequencerService
	bank      *BankService
	ledger    *LedgerService
	cursors   *pollstore.Store
}

func NewSyncService(db *gorm.DB, sequencer *SequencerService, bank *BankService, ledger *LedgerService, cursors *pollstore.Store) *SyncService {
	return &SyncService{db: db, sequencer: sequencer, bank: bank, ledger: ledger, cursors: cursors}
}

// ClientView is what the polling client believes the state to be.
type ClientView struct {
	SessionStatus string
	QuestionID    uint
	Answered      bool
}

// PollResult carries the authoritative state back; UpdateNeeded tells the
// client whether anything it reported is stale.
type PollResult struct {
	UpdateNeeded      bool          `json:"update_needed"`
	SessionStatus     string        `json:"session_status"`
	CurrentQuestion   *QuestionView `json:"current_question,omitempty"`
	QuestionStartedAt *time.Time    `json:"question_started_at,omitempty"`
	Answered          bool          `json:"answered"`
	Score             int           `json:"score"`
}

// Poll diffs the participant's reported state against the session's actual
// state.
func (s *SyncService) Poll(code, playerToken string, client ClientView) (*PollResult, error) {
	session, participant, err := s.resolve(code, playerToken)
	if err != nil {
		return nil, err
	}

	result := &PollResult{
		SessionStatus: session.Status,
		Score:         participant.Score,
	}

	var activeID uint
	active, err := s.sequencer.Active(s.db, session.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		activeID = active.QuestionID

		question, err := s.bank.Question(active.QuestionID)
		if err != nil {
			return nil, err
		}
		result.CurrentQuestion = s.bank.View(question, active.Position)
		result.QuestionStartedAt = active.StartedAt

		answered, err := s.ledger.HasAnswered(participant.ID, active.QuestionID)
		if err != nil {
			return nil, err
		}
		result.Answered = answered
	}

	result.UpdateNeeded = session.Status != client.SessionStatus ||
		activeID != client.QuestionID ||
		result.Answered != client.Answered

	return result, nil
}

// Events returns the session mutations recorded since the caller's previous
// poll, oldest first, and advances the caller's cursor. First-time callers
// get the whole log.
func (s *SyncService) Events(ctx context.Context, code, playerToken string) ([]models.SessionEvent, error) {
	session, _, err := s.resolve(code, playerToken)
	if err != nil {
		return nil, err
	}

	since, err := s.cursors.LastPoll(ctx, session.ID, playerToken)
	if err != nil {
		return nil, apperr.Internal("failed to read poll cursor", err)
	}

	// Capture the cursor before querying so events landing mid-query are
	// picked up by the next poll instead of lost.
	now := time.Now()

	var events []models.SessionEvent
	err = s.db.Where("session_id = ? AND created_at > ?", session.ID, since).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, apperr.Internal("failed to load events", err)
	}

	if err := s.cursors.SetLastPoll(ctx, session.ID, playerToken, now); err != nil {
		return nil, apperr.Internal("failed to update poll cursor", err)
	}
	return events, nil
}

// SessionByCode resolves a join code to its non-closed session.
func (s *SyncService) SessionByCode(code string) (*models.Session, error) {
	if code == "" {
		return nil, apperr.Validation("join code is required")
	}

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

func (s *SyncService) resolve(code, playerToken string) (*models.Session, *models.Participant, error) {
	if playerToken == "" {
		return nil, nil, apperr.Validation("player token is required")
	}

	session, err := s.SessionByCode(code)
	if err != nil {
		return nil, nil, err
	}

	var participant models.Participant
	err = s.db.Where("session_id = ? AND player_token = ?", session.ID, playerToken).
		First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.NotFound("participant not found in session")
	}
	if err != nil {
		return nil, nil, apperr.Internal("failed to load participant", err)
	}

	return session, &participant, nil
}
