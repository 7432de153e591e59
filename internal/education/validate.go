package education

import "fmt"

// ValidationResult reports every structural problem found in a quiz.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateQuiz checks a quiz for a title, a subject, at least one question,
// and per question: text, two or more options and exactly one correct
// option. All checks run; nothing short-circuits.
//
// Courses, presentations and exercise sets have no validator.
func ValidateQuiz(q *Quiz) ValidationResult {
	errs := []string{}
	if q == nil {
		q = &Quiz{}
	}

	if q.Metadata.Title == "" {
		errs = append(errs, "Quiz title is required")
	}
	if q.Metadata.Subject == "" {
		errs = append(errs, "Subject is required")
	}
	if len(q.Questions) == 0 {
		errs = append(errs, "At least one question is required")
	}

	for i, question := range q.Questions {
		n := i + 1
		if question.Text == "" {
			errs = append(errs, fmt.Sprintf("Question %d: Question text is required", n))
		}
		if len(question.Options) < 2 {
			errs = append(errs, fmt.Sprintf("Question %d: At least 2 options are required", n))
		}
		correct := 0
		for _, opt := range question.Options {
			if opt.Correct {
				correct++
			}
		}
		if correct != 1 {
			errs = append(errs, fmt.Sprintf("Question %d: Exactly one correct option is required", n))
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
