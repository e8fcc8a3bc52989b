package services_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ndrake454/QuizLight-sub001/internal/database"
	"github.com/ndrake454/QuizLight-sub001/internal/models"
	"github.com/ndrake454/QuizLight-sub001/internal/services"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One shared in-memory database per test, single connection so that
	// concurrent submissions serialize at the pool instead of tripping
	// sqlite table locks.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db        *gorm.DB
	bank      *services.BankService
	scoring   *services.ScoringService
	sequencer *services.SequencerService
	session   *services.SessionService
	ledger    *services.LedgerService
	registry  *services.RegistryService

	host     models.Host
	category models.Category
	// questions: [0] and [1] single choice, [2] free text ("Mount Everest").
	questions []models.Question
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupDB(t)

	f := &fixture{
		db:        db,
		bank:      services.NewBankService(db),
		scoring:   services.NewScoringService(),
		sequencer: services.NewSequencerService(),
	}
	f.session = services.NewSessionService(db, f.sequencer, f.bank)
	f.ledger = services.NewLedgerService(db, f.scoring, f.bank)
	f.registry = services.NewRegistryService(db, f.sequencer, f.bank)

	f.host = models.Host{Username: "quizmaster", PasswordHash: "x"}
	if err := db.Create(&f.host).Error; err != nil {
		t.Fatalf("seed host: %v", err)
	}

	f.category = models.Category{Title: "General knowledge"}
	if err := db.Create(&f.category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	f.questions = []models.Question{
		{
			CategoryID: f.category.ID,
			Type:       models.QuestionTypeSingleChoice,
			Text:       "What is the capital of France?",
			OrderNum:   1,
			Options: []models.Option{
				{Text: "Paris", IsCorrect: true},
				{Text: "London"},
				{Text: "Berlin"},
			},
		},
		{
			CategoryID: f.category.ID,
			Type:       models.QuestionTypeSingleChoice,
			Text:       "Which planet is closest to the sun?",
			OrderNum:   2,
			Options: []models.Option{
				{Text: "Mercury", IsCorrect: true},
				{Text: "Venus"},
			},
		},
		{
			CategoryID: f.category.ID,
			Type:       models.QuestionTypeFreeText,
			Text:       "Name the highest mountain on Earth.",
			OrderNum:   3,
			AcceptableAnswers: []models.AcceptableAnswer{
				{Text: "Mount Everest"},
				{Text: "Everest"},
			},
		},
	}
	for i := range f.questions {
		if err := db.Create(&f.questions[i]).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}

	return f
}

// startedSession creates and starts a session, returning its state with the
// first question active.
func (f *fixture) startedSession(t *testing.T) *services.SessionState {
	t.Helper()

	state, err := f.session.CreateSession(f.host.ID, f.category.ID, "Friday trivia", 20)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	state, err = f.session.Start(state.Session.ID, f.host.ID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return state
}

// join adds a participant and returns the join result.
func (f *fixture) join(t *testing.T, code, token, name string) *services.JoinResult {
	t.Helper()

	result, err := f.registry.Join(code, token, name)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return result
}

// correctOption returns the correct option's ID for a seeded single-choice
// question.
func correctOption(t *testing.T, q models.Question) *uint {
	t.Helper()
	for _, o := range q.Options {
		if o.IsCorrect {
			id := o.ID
			return &id
		}
	}
	t.Fatalf("question %d has no correct option", q.ID)
	return nil
}

// wrongOption returns an incorrect option's ID.
func wrongOption(t *testing.T, q models.Question) *uint {
	t.Helper()
	for _, o := range q.Options {
		if !o.IsCorrect {
			id := o.ID
			return &id
		}
	}
	t.Fatalf("question %d has no wrong option", q.ID)
	return nil
}

// activeCount returns how many of the session's questions are active.
func activeCount(t *testing.T, db *gorm.DB, sessionID uint) int {
	t.Helper()
	var n int64
	err := db.Model(&models.SessionQuestion{}).
		Where("session_id = ? AND status = ?", sessionID, models.QuestionStatusActive).
		Count(&n).Error
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	return int(n)
}
