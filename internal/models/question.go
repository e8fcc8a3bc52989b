package models

type Question struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	CategoryID        uint               `gorm:"not null;index" json:"category_id"`
	Type              string             `gorm:"size:20;not null;default:'single_choice'" json:"type"`
	Text              string             `gorm:"type:text;not null" json:"text"`
	OrderNum          int                `gorm:"not null;default:0" json:"order_num"`
	Options           []Option           `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
	AcceptableAnswers []AcceptableAnswer `gorm:"foreignKey:QuestionID" json:"acceptable_answers,omitempty"`
}

const (
	QuestionTypeSingleChoice = "single_choice"
	QuestionTypeFreeText     = "free_text"
)
