package quiz

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIncompleteSubmission matches any ValidationError through errors.Is.
	ErrIncompleteSubmission = errors.New("incomplete submission")
	// ErrInvalidContent matches any ConfigurationError through errors.Is.
	ErrInvalidContent = errors.New("invalid quiz content")
)

// ValidationError rejects a submission that does not answer every question.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("incomplete submission: %d unanswered (%s)",
		len(e.Missing), strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrIncompleteSubmission
}

// ConfigurationError reports malformed question data. It is a content
// problem and cannot be fixed by resubmitting.
type ConfigurationError struct {
	QuestionID string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	if e.QuestionID == "" {
		return "invalid quiz content: " + e.Reason
	}
	return fmt.Sprintf("invalid quiz content: question %q: %s", e.QuestionID, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidContent
}
