package education

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// QuestionResult is the outcome of one answered quiz question.
type QuestionResult struct {
	QuestionID   int  `json:"questionId"`
	Selected     int  `json:"selected"` // option index, -1 when unanswered
	CorrectIndex int  `json:"correctIndex"`
	Correct      bool `json:"correct"`
}

// QuizResult summarises a graded quiz attempt.
type QuizResult struct {
	Score      int              `json:"score"`
	MaxScore   int              `json:"maxScore"`
	Percentage int              `json:"percentage"`
	Questions  []QuestionResult `json:"questions"`
}

// GradeQuiz scores answers, a map of question id to selected option index.
// Missing or out-of-range selections count as wrong.
func GradeQuiz(q *Quiz, answers map[int]int) QuizResult {
	res := QuizResult{Questions: []QuestionResult{}}
	if q == nil {
		return res
	}
	res.MaxScore = len(q.Questions)

	for _, question := range q.Questions {
		qr := QuestionResult{QuestionID: question.ID, Selected: -1, CorrectIndex: -1}
		for i, opt := range question.Options {
			if opt.Correct {
				qr.CorrectIndex = i
				break
			}
		}
		if sel, ok := answers[question.ID]; ok && sel >= 0 && sel < len(question.Options) {
			qr.Selected = sel
			qr.Correct = question.Options[sel].Correct
		}
		if qr.Correct {
			res.Score++
		}
		res.Questions = append(res.Questions, qr)
	}

	res.Percentage = percentage(res.Score, res.MaxScore)
	return res
}

// ExerciseAnswerResult is the outcome of one answered exercise.
type ExerciseAnswerResult struct {
	ExerciseID int    `json:"exerciseId"`
	Answer     string `json:"answer"`
	Correct    bool   `json:"correct"`
	Solution   string `json:"solution"`
}

// ExerciseResult summarises a graded exercise attempt.
type ExerciseResult struct {
	Score      int                    `json:"score"`
	MaxScore   int                    `json:"maxScore"`
	Percentage int                    `json:"percentage"`
	Exercises  []ExerciseAnswerResult `json:"exercises"`
}

// GradeExercises checks answers, a map of exercise id to the learner's
// answer text. Exercises with options compare against the correct option
// text; the rest compare against Answer when set, else Solution.
func GradeExercises(set *ExerciseSet, answers map[int]string) ExerciseResult {
	res := ExerciseResult{Exercises: []ExerciseAnswerResult{}}
	if set == nil {
		return res
	}
	res.MaxScore = len(set.Exercises)
	lang := set.Metadata.Language

	for _, ex := range set.Exercises {
		answer := answers[ex.ID]
		er := ExerciseAnswerResult{ExerciseID: ex.ID, Answer: answer, Solution: ex.Solution}

		switch {
		case len(ex.Options) > 0:
			for _, opt := range ex.Options {
				if opt.Correct && normalize(answer, lang) == normalize(opt.Text, lang) && normalize(answer, lang) != "" {
					er.Correct = true
					break
				}
			}
		case ex.Answer != "":
			er.Correct = CheckAnswer(answer, ex.Answer, lang)
		default:
			er.Correct = CheckAnswer(answer, ex.Solution, lang)
		}

		if er.Correct {
			res.Score++
		}
		res.Exercises = append(res.Exercises, er)
	}

	res.Percentage = percentage(res.Score, res.MaxScore)
	return res
}

// CheckAnswer reports whether a free-text answer matches the expected
// solution: after normalisation the two are equal or one contains the
// other. Empty answers and empty solutions never match.
func CheckAnswer(answer, solution, lang string) bool {
	a := normalize(answer, lang)
	s := normalize(solution, lang)
	if a == "" || s == "" {
		return false
	}
	return a == s || strings.Contains(a, s) || strings.Contains(s, a)
}

func normalize(s, lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Finnish
	}
	s = norm.NFC.String(strings.TrimSpace(s))
	return cases.Lower(tag).String(s)
}

func percentage(score, max int) int {
	if max == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(max) * 100))
}
