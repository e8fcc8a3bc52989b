package services

import (
	"errors"
	"time"

	"github.com/ndrake454/QuizLight-sub001/internal/apperr"
	"github.com/ndrake454/QuizLight-sub001/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const leaderboardSize = 10

// RegistryService manages participants: join/rejoin, display names and the
// leaderboard and roster projections.
type RegistryService struct {
	db        *gorm.DB
	sequencer *SequencerService
	bank      *BankService
}

func NewRegistryService(db *gorm.DB, sequencer *SequencerService, bank *BankService) *RegistryService {
	return &RegistryService{db: db, sequencer: sequencer, bank: bank}
}

type JoinResult struct {
	ParticipantID      uint          `json:"participant_id"`
	PlayerToken        string        `json:"player_token"`
	SessionID          uint          `json:"session_id"`
	SessionName        string        `json:"session_name"`
	SessionStatus      string        `json:"session_status"`
	SecondsPerQuestion int           `json:"seconds_per_question"`
	IsRejoin           bool          `json:"is_rejoin"`
	Score              int           `json:"score"`
	CurrentQuestion    *QuestionView `json:"current_question,omitempty"`
	QuestionStartedAt  *time.Time    `json:"question_started_at,omitempty"`
}

// Join adds the caller to the session behind the join code, or reattaches an
// existing participant when the same token comes back (a page refresh must
// not reset the score). Late joiners get the active question immediately so
// they can render it without waiting for a poll.
func (s *RegistryService) Join(code, playerToken, displayName string) (*JoinResult, error) {
	if code == "" {
		return nil, apperr.Validation("join code is required")
	}
	if displayName == "" {
		return nil, apperr.Validation("display name is required")
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

	if playerToken == "" {
		playerToken = uuid.NewString()
	}

	now := time.Now()
	var participant models.Participant
	isRejoin := false

	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("session_id = ? AND player_token = ?", session.ID, playerToken).
			First(&participant).Error
		if err == nil {
			isRejoin = true
			return tx.Model(&participant).Updates(map[string]interface{}{
				"display_name":   displayName,
				"last_active_at": now,
			}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Internal("failed to look up participant", err)
		}

		if session.Status == models.SessionStatusCompleted {
			return apperr.Conflict("session has ended")
		}

		participant = models.Participant{
			SessionID:    session.ID,
			PlayerToken:  playerToken,
			DisplayName:  displayName,
			JoinedAt:     now,
			LastActiveAt: now,
			LastScoredAt: now,
		}
		if err := tx.Create(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Two simultaneous joins with the same token: reuse the row
				// the winner created.
				return tx.Where("session_id = ? AND player_token = ?", session.ID, playerToken).
					First(&participant).Error
			}
			return apperr.Internal("failed to join session", err)
		}
		return recordEvent(tx, session.ID, models.EventParticipantJoined, nil, &participant.ID, "")
	})
	if err != nil {
		return nil, err
	}

	result := &JoinResult{
		ParticipantID:      participant.ID,
		PlayerToken:        playerToken,
		SessionID:          session.ID,
		SessionName:        session.Name,
		SessionStatus:      session.Status,
		SecondsPerQuestion: session.SecondsPerQuestion,
		IsRejoin:           isRejoin,
		Score:              participant.Score,
	}

	if session.Status == models.SessionStatusInProgress {
		active, err := s.sequencer.Active(s.db, session.ID)
		if err != nil {
			return nil, err
		}
		if active != nil {
			question, err := s.bank.Question(active.QuestionID)
			if err != nil {
				return nil, err
			}
			result.CurrentQuestion = s.bank.View(question, active.Position)
			result.QuestionStartedAt = active.StartedAt
		}
	}

	return result, nil
}

// Participant resolves a player token within a session.
func (s *RegistryService) Participant(sessionID uint, playerToken string) (*models.Participant, error) {
	var participant models.Participant
	err := s.db.Where("session_id = ? AND player_token = ?", sessionID, playerToken).
		First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("participant not found in session")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load participant", err)
	}
	return &participant, nil
}

type LeaderboardEntry struct {
	Position     int    `json:"position"`
	DisplayName  string `json:"display_name"`
	Score        int    `json:"score"`
	CorrectCount int    `json:"correct_count"`
	TotalCount   int    `json:"total_count"`
}

// Leaderboard returns the top participants by score. Ties break by who
// reached the score first, then by join order, so the ranking is stable
// across polls.
func (s *RegistryService) Leaderboard(sessionID uint) ([]LeaderboardEntry, error) {
	var participants []models.Participant
	err := s.db.Where("session_id = ?", sessionID).
		Order("score DESC, last_scored_at ASC, id ASC").
		Limit(leaderboardSize).
		Find(&participants).Error
	if err != nil {
		return nil, apperr.Internal("failed to load leaderboard", err)
	}

	entries := make([]LeaderboardEntry, len(participants))
	for i, p := range participants {
		entries[i] = LeaderboardEntry{
			Position:     i + 1,
			DisplayName:  p.DisplayName,
			Score:        p.Score,
			CorrectCount: p.CorrectCount,
			TotalCount:   p.TotalCount,
		}
	}
	return entries, nil
}

type RosterEntry struct {
	ParticipantID uint      `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Score         int       `json:"score"`
	CorrectCount  int       `json:"correct_count"`
	TotalCount    int       `json:"total_count"`
	Accuracy      float64   `json:"accuracy"`
	JoinedAt      time.Time `json:"joined_at"`
	LastActiveAt  time.Time `json:"last_active_at"`
}

// Roster returns every participant with score and accuracy. Host only: the
// caller must own the session.
func (s *RegistryService) Roster(sessionID, hostID uint) ([]RosterEntry, error) {
	var session models.Session
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, apperr.Internal("failed to load session", err)
	}
	if session.HostID != hostID {
		return nil, apperr.Forbidden("only the session host can view the roster")
	}

	var participants []models.Participant
	err := s.db.Where("session_id = ?", sessionID).
		Order("score DESC, last_scored_at ASC, id ASC").
		Find(&participants).Error
	if err != nil {
		return nil, apperr.Internal("failed to load roster", err)
	}

	entries := make([]RosterEntry, len(participants))
	for i, p := range participants {
		accuracy := 0.0
		if p.TotalCount > 0 {
			accuracy = float64(p.CorrectCount) / float64(p.TotalCount)
		}
		entries[i] = RosterEntry{
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Score:         p.Score,
			CorrectCount:  p.CorrectCount,
			TotalCount:    p.TotalCount,
			Accuracy:      accuracy,
			JoinedAt:      p.JoinedAt,
			LastActiveAt:  p.LastActiveAt,
		}
	}
	return entries, nil
}
