package services

import (
	"errors"

	"github.com/ndrake454/QuizLight-sub001/internal/apperr"
	"github.com/ndrake454/QuizLight-sub001/internal/models"

	"gorm.io/gorm"
)

// BankService is the read-only interface over the question bank. Content
// management lives elsewhere; the session engine only ever reads from it.
type BankService struct {
	db *gorm.DB
}

func NewBankService(db *gorm.DB) *BankService {
	return &BankService{db: db}
}

// CategoryQuestions returns a category's questions in display order,
// including options and acceptable answers.
func (s *BankService) CategoryQuestions(categoryID uint) ([]models.Question, error) {
	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, apperr.Internal("failed to load category", err)
	}

	var questions []models.Question
	err := s.db.Where("category_id = ?", categoryID).
		Order("order_num ASC").
		Preload("Options").
		Preload("AcceptableAnswers").
		Find(&questions).Error
	if err != nil {
		return nil, apperr.Internal("failed to load questions", err)
	}
	return questions, nil
}

// Question loads one bank question with its options and acceptable answers.
func (s *BankService) Question(questionID uint) (*models.Question, error) {
	var question models.Question
	err := s.db.Preload("Options").
		Preload("AcceptableAnswers").
		First(&question, questionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("question not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load question", err)
	}
	return &question, nil
}

// QuestionView is the participant-safe rendering of a bank question: no
// correctness flags, no acceptable answers.
type QuestionView struct {
	ID       uint         `json:"id"`
	Type     string       `json:"type"`
	Text     string       `json:"text"`
	Position int          `json:"position"`
	Options  []OptionView `json:"options,omitempty"`
}

type OptionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// View renders a question for clients, attaching its position within the
// session.
func (s *BankService) View(q *models.Question, position int) *QuestionView {
	view := &QuestionView{
		ID:       q.ID,
		Type:     q.Type,
		Text:     q.Text,
		Position: position,
	}
	for _, o := range q.Options {
		view.Options = append(view.Options, OptionView{ID: o.ID, Text: o.Text})
	}
	return view
}
