// Package quiz grades quiz submissions and applies the lesson and final quiz
// pass policies.
package quiz

import (
	"fmt"
	"strings"
)

// Kind selects the pass policy of a quiz.
type Kind string

const (
	// KindLesson is a quiz owned by a single lesson.
	KindLesson Kind = "lesson"
	// KindFinal is the general quiz of a discipline.
	KindFinal Kind = "final"
)

// MinOptions is the smallest option list a question may carry.
const MinOptions = 2

// Question is one multiple choice question. An empty LessonID places the
// question in its discipline's final quiz.
type Question struct {
	ID            string   `yaml:"id" json:"id"`
	DisciplineID  string   `yaml:"discipline_id" json:"discipline_id"`
	LessonID      string   `yaml:"lesson_id,omitempty" json:"lesson_id,omitempty"`
	Text          string   `yaml:"question" json:"question"`
	Options       []string `yaml:"options" json:"options"`
	CorrectOption int      `yaml:"correct_option" json:"correct_option"`
	Comment       string   `yaml:"comment,omitempty" json:"comment,omitempty"`
	OrderIndex    int      `yaml:"order_index" json:"order_index"`
}

// Kind reports which quiz the question belongs to.
func (q Question) Kind() Kind {
	if q.LessonID == "" {
		return KindFinal
	}
	return KindLesson
}

// Validate checks a single question for content errors.
func (q Question) Validate() error {
	switch {
	case strings.TrimSpace(q.ID) == "":
		return &ConfigurationError{QuestionID: q.ID, Reason: "missing id"}
	case strings.TrimSpace(q.Text) == "":
		return &ConfigurationError{QuestionID: q.ID, Reason: "missing question text"}
	case len(q.Options) < MinOptions:
		return &ConfigurationError{
			QuestionID: q.ID,
			Reason:     fmt.Sprintf("needs at least %d options, has %d", MinOptions, len(q.Options)),
		}
	case q.CorrectOption < 0 || q.CorrectOption >= len(q.Options):
		return &ConfigurationError{
			QuestionID: q.ID,
			Reason:     fmt.Sprintf("correct option %d out of range [0,%d)", q.CorrectOption, len(q.Options)),
		}
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return &ConfigurationError{QuestionID: q.ID, Reason: fmt.Sprintf("option %d is empty", i)}
		}
	}
	return nil
}

// ValidateQuestions checks every question of a quiz and rejects duplicate ids.
func ValidateQuestions(questions []Question) error {
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return err
		}
		if seen[q.ID] {
			return &ConfigurationError{QuestionID: q.ID, Reason: "duplicate question id"}
		}
		seen[q.ID] = true
	}
	return nil
}
