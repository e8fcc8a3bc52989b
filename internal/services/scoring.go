package services

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ndrake454/QuizLight-sub001/internal/models"

	"github.com/agnivade/levenshtein"
)

const (
	basePoints  = 1000
	floorPoints = 100

	minElapsed = 1
	maxElapsed = 120

	// Fuzzy matching only applies to short normalized submissions; anything
	// longer must match exactly or fail.
	maxFuzzyLength = 30
)

// Submission is one participant's answer to a question, as reported by the
// client.
type Submission struct {
	OptionID *uint
	Text     string
	Elapsed  int
	TimedOut bool
}

// ScoreResult is the outcome of grading a single submission.
type ScoreResult struct {
	IsCorrect bool
	Points    int
	TimeTaken int
}

// ScoringService grades submissions. It is pure: no persistence, no clock.
type ScoringService struct{}

func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// Score grades a submission against the bank question. Elapsed time is
// clamped to [1, 120] seconds before use. Incorrect and timed-out answers
// always score zero.
func (s *ScoringService) Score(question *models.Question, sub Submission, secondsPerQuestion int) ScoreResult {
	elapsed := clampElapsed(sub.Elapsed)
	result := ScoreResult{TimeTaken: elapsed}

	if sub.TimedOut || isEmptySubmission(question, sub) {
		return result
	}

	switch question.Type {
	case models.QuestionTypeFreeText:
		result.IsCorrect = matchFreeText(sub.Text, question.AcceptableAnswers)
	default:
		result.IsCorrect = matchOption(*sub.OptionID, question.Options)
	}

	if result.IsCorrect {
		result.Points = speedPoints(elapsed, secondsPerQuestion)
	}
	return result
}

func clampElapsed(elapsed int) int {
	if elapsed < minElapsed {
		return minElapsed
	}
	if elapsed > maxElapsed {
		return maxElapsed
	}
	return elapsed
}

func isEmptySubmission(question *models.Question, sub Submission) bool {
	if question.Type == models.QuestionTypeFreeText {
		return strings.TrimSpace(sub.Text) == ""
	}
	return sub.OptionID == nil
}

func matchOption(optionID uint, options []models.Option) bool {
	for _, o := range options {
		if o.ID == optionID {
			return o.IsCorrect
		}
	}
	return false
}

func matchFreeText(text string, acceptable []models.AcceptableAnswer) bool {
	normalized := normalizeAnswer(text)
	if normalized == "" {
		return false
	}

	for _, a := range acceptable {
		if normalized == normalizeAnswer(a.Text) {
			return true
		}
	}

	if utf8.RuneCountInString(normalized) > maxFuzzyLength {
		return false
	}

	for _, a := range acceptable {
		if fuzzyMatch(normalized, normalizeAnswer(a.Text)) {
			return true
		}
	}
	return false
}

// fuzzyMatch accepts a near-miss when its edit distance stays within a
// length-adaptive tolerance: longer strings tolerate proportionally more.
func fuzzyMatch(submission, answer string) bool {
	if answer == "" {
		return false
	}

	subLen := utf8.RuneCountInString(submission)
	ansLen := utf8.RuneCountInString(answer)
	longest := subLen
	if ansLen > longest {
		longest = ansLen
	}

	threshold := math.Min(0.8, 1.0-2.0/float64(longest))
	maxDistance := int(math.Floor(float64(longest) * (1.0 - threshold)))

	return levenshtein.ComputeDistance(submission, answer) <= maxDistance
}

const strippedPunctuation = ".,;:!?()'\"-"

// normalizeAnswer lowercases, strips punctuation, collapses internal
// whitespace and trims. Both submissions and acceptable answers pass through
// this before any comparison.
func normalizeAnswer(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippedPunctuation, r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// speedPoints rewards faster correct answers. The bonus goes negative once
// elapsed exceeds the per-question window, but every correct answer keeps a
// 100-point floor.
func speedPoints(elapsed, secondsPerQuestion int) int {
	if secondsPerQuestion <= 0 {
		return basePoints
	}

	bonus := int(math.Floor(float64(secondsPerQuestion-elapsed) / float64(secondsPerQuestion) * 1000))
	points := basePoints + bonus
	if points < floorPoints {
		return floorPoints
	}
	return points
}
