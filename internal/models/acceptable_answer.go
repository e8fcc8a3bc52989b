package models

// AcceptableAnswer is one ground-truth answer for a free_text question.
type AcceptableAnswer struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"size:500;not null" json:"text"`
}
