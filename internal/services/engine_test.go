package services_test

import (
	"testing"

	"github.com/ndrake454/QuizLight-sub001/internal/models"
	"github.com/ndrake454/QuizLight-sub001/internal/services"
)

// Full run of one session: start, two participants answering the first
// question (one fast and correct, one wrong), advance, leaderboard.
func TestFullSessionRound(t *testing.T) {
	f := newFixture(t)
	state := f.startedSession(t)
	sessionID := state.Session.ID

	alice := f.join(t, state.Session.Code, "", "Alice")
	bob := f.join(t, state.Session.Code, "", "Bob")

	aliceResult, err := f.ledger.Submit(sessionID, alice.PlayerToken, f.questions[0].ID, services.Submission{
		OptionID: correctOption(t, f.questions[0]),
		Elapsed:  5,
	})
	if err != nil {
		t.Fatalf("alice submit: %v", err)
	}
	if aliceResult.Points != 1750 {
		t.Fatalf("expected 1750 for correct at 5s of 20s, got %d", aliceResult.Points)
	}

	bobResult, err := f.ledger.Submit(sessionID, bob.PlayerToken, f.questions[0].ID, services.Submission{
		OptionID: wrongOption(t, f.questions[0]),
		Elapsed:  3,
	})
	if err != nil {
		t.Fatalf("bob submit: %v", err)
	}
	if bobResult.Points != 0 {
		t.Fatalf("expected 0 for incorrect, got %d", bobResult.Points)
	}

	state, err = f.session.Next(sessionID, f.host.ID)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if state.CurrentQuestion == nil || state.CurrentQuestion.ID != f.questions[1].ID {
		t.Fatalf("expected question 2 active, got %+v", state.CurrentQuestion)
	}

	var retired models.SessionQuestion
	f.db.Where("session_id = ? AND question_id = ?", sessionID, f.questions[0].ID).First(&retired)
	if retired.Status != models.QuestionStatusCompleted {
		t.Fatalf("expected question 1 retired, got %s", retired.Status)
	}

	entries, err := f.registry.Leaderboard(sessionID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].DisplayName != "Alice" || entries[0].Score != 1750 {
		t.Fatalf("expected Alice leading with 1750, got %+v", entries[0])
	}
	if entries[1].DisplayName != "Bob" || entries[1].Score != 0 {
		t.Fatalf("expected Bob second with 0, got %+v", entries[1])
	}
}
