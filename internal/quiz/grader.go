package quiz

const (
	// LessonPassPercent is the share of correct answers a lesson quiz needs,
	// rounded up to a whole question.
	LessonPassPercent = 66
	// FinalPassScore is the minimum score of a passing final quiz.
	FinalPassScore = 70
	// PerfectScore is a fully correct quiz.
	PerfectScore = 100
)

// Answers maps a question id to the index of the chosen option.
type Answers map[string]int

// Score is the outcome of grading a submission.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Percent int `json:"score"`
}

// Perfect reports whether every question was answered correctly.
func (s Score) Perfect() bool {
	return s.Percent == PerfectScore
}

// Grade scores answers against the questions' answer key. The caller must
// have checked the submission with ValidateSubmission.
func Grade(questions []Question, answers Answers) Score {
	correct := 0
	for _, q := range questions {
		if a, ok := answers[q.ID]; ok && a == q.CorrectOption {
			correct++
		}
	}
	return Score{
		Correct: correct,
		Total:   len(questions),
		Percent: Percent(correct, len(questions)),
	}
}

// Percent returns 100*correct/total rounded half up, or 0 for an empty quiz.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// ValidateSubmission rejects answers that leave any question unanswered.
func ValidateSubmission(questions []Question, answers Answers) error {
	var missing []string
	for _, q := range questions {
		if _, ok := answers[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Policy decides whether a graded quiz passes.
type Policy func(Score) bool

// LessonPolicy passes when at least two thirds of the questions, rounded up,
// are correct: 2 of 3, 2 of 2.
func LessonPolicy(s Score) bool {
	return s.Correct >= RequiredCorrect(s.Total)
}

// RequiredCorrect is ceil(total * 0.66) computed in integers.
func RequiredCorrect(total int) int {
	return (total*LessonPassPercent + 99) / 100
}

// FinalPolicy passes at a score of 70 or more.
func FinalPolicy(s Score) bool {
	return s.Percent >= FinalPassScore
}

// PolicyFor returns the pass policy of a quiz kind.
func PolicyFor(kind Kind) Policy {
	if kind == KindFinal {
		return FinalPolicy
	}
	return LessonPolicy
}

// Result is a graded submission ready to be persisted.
type Result struct {
	Kind Kind `json:"kind"`
	Score
	Passed bool `json:"passed"`
}

// Evaluate validates the quiz content and the submission, grades it and
// applies the policy of kind. Nothing is graded when either check fails.
func Evaluate(kind Kind, questions []Question, answers Answers) (Result, error) {
	if len(questions) == 0 {
		return Result{}, &ConfigurationError{Reason: "quiz has no questions"}
	}
	if err := ValidateQuestions(questions); err != nil {
		return Result{}, err
	}
	if err := ValidateSubmission(questions, answers); err != nil {
		return Result{}, err
	}

	score := Grade(questions, answers)
	return Result{
		Kind:   kind,
		Score:  score,
		Passed: PolicyFor(kind)(score),
	}, nil
}
