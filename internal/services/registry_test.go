package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ndrake454/QuizLight-sub001/internal/apperr"
	"github.com/ndrake454/QuizLight-sub001/internal/models"
	"github.com/ndrake454/QuizLight-sub001/internal/services"
)

func TestJoinCreatesParticipant(t *testing.T) {
	f := newFixture(t)
	state, err := f.session.CreateSession(f.host.ID, f.category.ID, "Friday trivia", 20)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result := f.join(t, state.Session.Code, "", "Alice")
	if result.PlayerToken == "" {
		t.Fatalf("expected a generated player token")
	}
	if result.IsRejoin {
		t.Fatalf("first join must not be a rejoin")
	}
	if result.SessionStatus != models.SessionStatusWaiting {
		t.Fatalf("expected waiting status, got %s", result.SessionStatus)
	}
	if result.CurrentQuestion != nil {
		t.Fatalf("waiting session must not expose a question")
	}
}

func TestRejoinIsIdempotent(t *testing.T) {
	f := newFixture(t)
	state := f.startedSession(t)

	first := f.join(t, state.Session.Code, "", "Alice")

	// Score something so a rejoin has state to preserve.
	if _, err := f.ledger.Submit(state.Session.ID, first.PlayerToken, f.questions[0].ID, services.Submission{
		OptionID: correctOption(t, f.questions[0]),
		Elapsed:  5,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	second := f.join(t, state.Session.Code, first.PlayerToken, "Alice the Great")
	if !second.IsRejoin {
		t.Fatalf("expected rejoin")
	}
	if second.ParticipantID != first.ParticipantID {
		t.Fatalf("rejoin must reuse the participant row")
	}

	var count int64
	f.db.Model(&models.Participant{}).Where("session_id = ?", state.Session.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 participant row, got %d", count)
	}

	var p models.Participant
	f.db.First(&p, first.ParticipantID)
	if p.Score != 1750 {
		t.Fatalf("rejoin must not reset score, got %d", p.Score)
	}
	if p.DisplayName != "Alice the Great" {
		t.Fatalf("rejoin should update display name, got %q", p.DisplayName)
	}
}

func TestLateJoinerGetsActiveQuestion(t *testing.T) {
	f := newFixture(t)
	state := f.startedSession(t)

	result := f.join(t, state.Session.Code, "", "Latecomer")
	if result.CurrentQuestion == nil || result.CurrentQuestion.ID != f.questions[0].ID {
		t.Fatalf("expected active question in join result, got %+v", result.CurrentQuestion)
	}
	if result.QuestionStartedAt == nil {
		t.Fatalf("expected question start time for deadline rendering")
	}

	// Participant-facing views never leak correctness.
	for _, o := range result.CurrentQuestion.Options {
		if o.Text == "" {
			t.Fatalf("option text missing: %+v", o)
		}
	}
}

func TestJoinUnknownCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.Join("NOPE42", "", "Alice")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJoinValidation(t *testing.T) {
	f := newFixture(t)
	state, err := f.session.CreateSession(f.host.ID, f.category.ID, "Friday trivia", 20)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.registry.Join(state.Session.Code, "", "")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for empty display name, got %v", err)
	}
}

func TestLeaderboardOrderAndTieBreak(t *testing.T) {
	f := newFixture(t)
	state, err := f.session.CreateSession(f.host.ID, f.category.ID, "Friday trivia", 20)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now()
	scores := []struct {
		name   string
		score  int
		scored time.Time
	}{
		{"Carol", 1500, now.Add(-1 * time.Minute)},
		{"Alice", 2000, now.Add(-3 * time.Minute)},
		{"Bob", 1500, now.Add(-2 * time.Minute)}, // reached 1500 before Carol
	}
	for _, sc := range scores {
		p := models.Participant{
			SessionID:    state.Session.ID,
			PlayerToken:  sc.name,
			DisplayName:  sc.name,
			Score:        sc.score,
			JoinedAt:     now,
			LastActiveAt: now,
			LastScoredAt: sc.scored,
		}
		if err := f.db.Create(&p).Error; err != nil {
			t.Fatalf("seed participant: %v", err)
		}
	}

	entries, err := f.registry.Leaderboard(state.Session.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}

	want := []string{"Alice", "Bob", "Carol"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, name := range want {
		if entries[i].DisplayName != name {
			t.Fatalf("position %d: expected %s, got %s", i+1, name, entries[i].DisplayName)
		}
		if entries[i].Position != i+1 {
			t.Fatalf("expected position %d, got %d", i+1, entries[i].Position)
		}
	}
}

func TestLeaderboardTopTen(t *testing.T) {
	f := newFixture(t)
	state, err := f.session.CreateSession(f.host.ID, f.category.ID, "Friday trivia", 20)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now()
	for i := 0; i < 12; i++ {
		p := models.Participant{
			SessionID:    state.Session.ID,
			PlayerToken:  fmt.Sprintf("p%d", i),
			DisplayName:  fmt.Sprintf("Player %d", i),
			Score:        i * 100,
			JoinedAt:     now,
			LastActiveAt: now,
			LastScoredAt: now,
		}
		if err := f.db.Create(&p).Error; err != nil {
			t.Fatalf("seed participant: %v", err)
		}
	}

	entries, err := f.registry.Leaderboard(state.Session.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("expected top 10, got %d", len(entries))
	}
	if entries[0].Score != 1100 {
		t.Fatalf("expected highest score first, got %d", entries[0].Score)
	}
}

func TestRosterIsHostOnly(t *testing.T) {
	f := newFixture(t)
	state := f.startedSession(t)
	player := f.join(t, state.Session.Code, "", "Alice")

	if _, err := f.ledger.Submit(state.Session.ID, player.PlayerToken, f.questions[0].ID, services.Submission{
		OptionID: wrongOption(t, f.questions[0]),
		Elapsed:  5,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	entries, err := f.registry.Roster(state.Session.ID, f.host.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 roster entry, got %d", len(entries))
	}
	if entries[0].Accuracy != 0 || entries[0].TotalCount != 1 {
		t.Fatalf("unexpected roster entry: %+v", entries[0])
	}

	other := models.Host{Username: "imposter", PasswordHash: "x"}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatalf("seed host: %v", err)
	}
	_, err = f.registry.Roster(state.Session.ID, other.ID)
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for non-host, got %v", err)
	}
}
