package services_test

import (
	"context"
	"testing"

	"github.com/ndrake454/QuizLight-sub001/internal/apperr"
	"github.com/ndrake454/QuizLight-sub001/internal/models"
	"github.com/ndrake454/QuizLight-sub001/internal/pollstore"
	"github.com/ndrake454/QuizLight-sub001/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSyncService(t *testing.T, f *fixture) *services.SyncService {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return services.NewSyncService(f.db, f.sequencer, f.bank, f.ledger, pollstore.New(rdb))
}

func TestPollReportsNoChangeWhenConverged(t *testing.T) {
	f := newFixture(t)
	syncSvc := newSyncService(t, f)
	state := f.startedSession(t)
	player := f.join(t, state.Session.Code, "", "Alice")

	result, err := syncSvc.Poll(state.Session.Code, player.PlayerToken, services.ClientView{
		SessionStatus: models.SessionStatusInProgress,
		QuestionID:    f.questions[0].ID,
		Answered:      false,
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if result.UpdateNeeded {
		t.Fatalf("converged client should need no update: %+v", result)
	}
}

func TestPollDetectsQuestionAdvance(t *testing.T) {
	f := newFixture(t)
	syncSvc := newSyncService(t, f)
	state := f.startedSession(t)
	player := f.join(t, state.Session.Code, "", "Alice")

	if _, err := f.session.Next(state.Session.ID, f.host.ID); err != nil {
		t.Fatalf("next: %v", err)
	}

	// Client still believes question 1 is active.
	result, err := syncSvc.Poll(state.Session.Code, player.PlayerToken, services.ClientView{
		SessionStatus: models.SessionStatusInProgress,
		QuestionID:    f.questions[0].ID,
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !result.UpdateNeeded {
		t.Fatalf("expected update after advance")
	}
	if result.CurrentQuestion == nil || result.CurrentQuestion.ID != f.questions[1].ID {
		t.Fatalf("expected authoritative question 2, got %+v", result.CurrentQuestion)
	}
}

func TestPollDetectsAnswerRecorded(t *testing.T) {
	f := newFixture(t)
	syncSvc := newSyncService(t, f)
	state := f.startedSession(t)
	player := f.join(t, state.Session.Code, "", "Alice")

	if _, err := f.ledger.Submit(state.Session.ID, player.PlayerToken, f.questions[0].ID, services.Submission{
		OptionID: correctOption(t, f.questions[0]),
		Elapsed:  5,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// A retried client that lost the submit response discovers it already
	// answered.
	result, err := syncSvc.Poll(state.Session.Code, player.PlayerToken, services.ClientView{
		SessionStatus: models.SessionStatusInProgress,
		QuestionID:    f.questions[0].ID,
		Answered:      false,
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !result.UpdateNeeded || !result.Answered {
		t.Fatalf("expected answered=true update, got %+v", result)
	}
	if result.Score != 1750 {
		t.Fatalf("expected authoritative score 1750, got %d", result.Score)
	}
}

func TestPollDetectsCompletion(t *testing.T) {
	f := newFixture(t)
	syncSvc := newSyncService(t, f)
	state := f.startedSession(t)
	player := f.join(t, state.Session.Code, "", "Alice")

	if _, err := f.session.End(state.Session.ID, f.host.ID); err != nil {
		t.Fatalf("end: %v", err)
	}

	result, err := syncSvc.Poll(state.Session.Code, player.PlayerToken, services.ClientView{
		SessionStatus: models.SessionStatusInProgress,
		QuestionID:    f.questions[0].ID,
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !result.UpdateNeeded || result.SessionStatus != models.SessionStatusCompleted {
		t.Fatalf("expected completed status, got %+v", result)
	}
	if result.CurrentQuestion != nil {
		t.Fatalf("completed session must not expose a question")
	}
}

func TestEventsSinceLastPoll(t *testing.T) {
	f := newFixture(t)
	syncSvc := newSyncService(t, f)
	state := f.startedSession(t)
	player := f.join(t, state.Session.Code, "", "Alice")
	ctx := context.Background()

	// First poll returns the whole log so far.
	events, err := syncSvc.Events(ctx, state.Session.Code, player.PlayerToken)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("expected start events on first poll")
	}
	seen := map[string]bool{}
	for _, e := range events {
		seen[e.Type] = true
	}
	if !seen[models.EventSessionStarted] || !seen[models.EventQuestionActivated] {
		t.Fatalf("expected start/activation events, got %v", seen)
	}

	// Nothing new since.
	events, err = syncSvc.Events(ctx, state.Session.Code, player.PlayerToken)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty delta, got %d events", len(events))
	}

	// A score mutation shows up in the next delta only.
	if _, err := f.ledger.Submit(state.Session.ID, player.PlayerToken, f.questions[0].ID, services.Submission{
		OptionID: correctOption(t, f.questions[0]),
		Elapsed:  5,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	events, err = syncSvc.Events(ctx, state.Session.Code, player.PlayerToken)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 || events[0].Type != models.EventScoreUpdated {
		t.Fatalf("expected single score event, got %+v", events)
	}
}

func TestEventsCursorsArePerCaller(t *testing.T) {
	f := newFixture(t)
	syncSvc := newSyncService(t, f)
	state := f.startedSession(t)
	alice := f.join(t, state.Session.Code, "", "Alice")
	bob := f.join(t, state.Session.Code, "", "Bob")
	ctx := context.Background()

	if _, err := syncSvc.Events(ctx, state.Session.Code, alice.PlayerToken); err != nil {
		t.Fatalf("events: %v", err)
	}

	// Alice's drained cursor must not affect Bob's first poll.
	events, err := syncSvc.Events(ctx, state.Session.Code, bob.PlayerToken)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) == 0 {
		t.Fatalf("expected full log for a fresh caller")
	}
}

func TestPollRequiresKnownParticipant(t *testing.T) {
	f := newFixture(t)
	syncSvc := newSyncService(t, f)
	state := f.startedSession(t)

	_, err := syncSvc.Poll(state.Session.Code, "stranger-token", services.ClientView{})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown token, got %v", err)
	}
}
