package education

import (
	"fmt"
	"strings"
)

// ContentType identifies one of the generated content kinds.
type ContentType string

const (
	TypeQuiz         ContentType = "quiz"
	TypeCourse       ContentType = "course"
	TypePresentation ContentType = "presentation"
	TypeExercise     ContentType = "exercise"
)

// AllContentTypes lists every supported kind in display order.
var AllContentTypes = []ContentType{TypeQuiz, TypeCourse, TypePresentation, TypeExercise}

func (t ContentType) String() string {
	return string(t)
}

// Valid reports whether t is one of the supported kinds.
func (t ContentType) Valid() bool {
	switch t {
	case TypeQuiz, TypeCourse, TypePresentation, TypeExercise:
		return true
	default:
		return false
	}
}

// ParseContentType converts an external key such as "quiz" into a ContentType.
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(strings.TrimSpace(strings.ToLower(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContentType, s)
	}
	return t, nil
}
