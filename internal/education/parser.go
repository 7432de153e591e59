package education

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Parse extracts typed content of kind t from generated text. Any failure
// yields a nil Content and a non-nil error; callers should treat it as
// unusable output. Malformed entries inside the content are dropped
// rather than failing the parse.
func Parse(raw string, t ContentType) (Content, error) {
	switch t {
	case TypeQuiz:
		q, err := ParseQuiz(raw)
		if err != nil {
			return nil, err
		}
		return q, nil
	case TypeCourse:
		c, err := ParseCourse(raw)
		if err != nil {
			return nil, err
		}
		return c, nil
	case TypePresentation:
		p, err := ParsePresentation(raw)
		if err != nil {
			return nil, err
		}
		return p, nil
	case TypeExercise:
		e, err := ParseExerciseSet(raw)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, string(t))
	}
}

// ParseQuiz parses a <quiz> document.
func ParseQuiz(raw string) (*Quiz, error) {
	return guard(TypeQuiz, func() (*Quiz, error) {
		root, err := container(raw, "quiz")
		if err != nil {
			return nil, err
		}
		meta, err := parseMetadata(root)
		if err != nil {
			return nil, err
		}

		quiz := &Quiz{Metadata: meta, Questions: []QuizQuestion{}}
		questions, ok := findElement(root, "questions", block)
		if !ok {
			return quiz, nil
		}
		for _, el := range findAllElements(questions.body, "question", block) {
			id, ok := el.id()
			if !ok {
				continue
			}
			text, hasText := findText(el.body, "text")
			options, hasOptions := findElement(el.body, "options", block)
			if !hasText || !hasOptions {
				continue
			}
			quiz.Questions = append(quiz.Questions, QuizQuestion{
				ID:          id,
				Text:        text,
				Options:     parseOptions(options.body),
				Explanation: textOr(el.body, "explanation", ""),
			})
		}
		return quiz, nil
	})
}

// ParseCourse parses a <course> document.
func ParseCourse(raw string) (*Course, error) {
	return guard(TypeCourse, func() (*Course, error) {
		root, err := container(raw, "course")
		if err != nil {
			return nil, err
		}
		meta, err := parseMetadata(root)
		if err != nil {
			return nil, err
		}

		course := &Course{
			Metadata: CourseMetadata{
				Metadata: meta,
				Duration: leadingInt(textOr(root, "duration", "")),
			},
			Modules:            []CourseModule{},
			LearningObjectives: []string{},
		}
		if md, ok := findElement(root, "metadata", block); ok {
			course.Metadata.Description = textOr(md.body, "description", "")
			course.Metadata.EstimatedDuration = textOr(md.body, "estimated_duration", "")
		}

		if modules, ok := findElement(root, "modules", block); ok {
			for _, el := range findAllElements(modules.body, "module", block) {
				if m, ok := parseModule(el); ok {
					course.Modules = append(course.Modules, m)
				}
			}
		}

		if objectives, ok := findElement(root, "learning_objectives", block); ok {
			for _, el := range findAllElements(objectives.body, "objective", inline) {
				course.LearningObjectives = append(course.LearningObjectives, strings.TrimSpace(el.body))
			}
		}
		return course, nil
	})
}

func parseModule(el element) (CourseModule, bool) {
	id, ok := el.id()
	if !ok {
		return CourseModule{}, false
	}
	title, hasTitle := findText(el.body, "title")

	m := CourseModule{
		ID:          id,
		Title:       title,
		Description: textOr(el.body, "description", ""),
		Content:     []ModuleContent{},
		Activities:  []Activity{},
		Duration:    leadingInt(textOr(el.body, "duration", "")),
	}

	if body, ok := findBlockText(el.body, "content"); ok {
		blockTitle := title
		if !hasTitle {
			blockTitle = "Module Content"
		}
		m.Content = append(m.Content, ModuleContent{
			Type:    ModuleContentText,
			Title:   blockTitle,
			Content: body,
		})
	}

	if activities, ok := findElement(el.body, "activities", block); ok {
		for _, a := range findAllElements(activities.body, "activity", inline) {
			kind, ok := a.attr("type")
			if !ok || kind == "" {
				continue
			}
			m.Activities = append(m.Activities, Activity{
				Type:        kind,
				Description: strings.TrimSpace(a.body),
			})
		}
	}
	return m, true
}

// ParsePresentation parses a <presentation> document.
func ParsePresentation(raw string) (*Presentation, error) {
	return guard(TypePresentation, func() (*Presentation, error) {
		root, err := container(raw, "presentation")
		if err != nil {
			return nil, err
		}
		meta, err := parseMetadata(root)
		if err != nil {
			return nil, err
		}

		p := &Presentation{
			Metadata: PresentationMetadata{
				Metadata:        meta,
				GradeLevelAlias: meta.GradeLevel,
			},
			Slides: []Slide{},
		}
		if md, ok := findElement(root, "metadata", block); ok {
			p.Metadata.Description = textOr(md.body, "description", "")
			p.Metadata.EstimatedDuration = textOr(md.body, "estimated_duration", "")
		}

		slides, ok := findElement(root, "slides", block)
		if !ok {
			return p, nil
		}
		for _, el := range findAllElements(slides.body, "slide", block) {
			id, ok := el.id()
			if !ok {
				continue
			}
			kind, _ := el.attr("type")
			if kind == "" {
				kind = "content"
			}
			slide := Slide{
				ID:               id,
				Type:             kind,
				Title:            textOr(el.body, "title", ""),
				BulletPoints:     parsePoints(el.body, "bullet_points"),
				DiscussionPoints: parsePoints(el.body, "discussion_points"),
			}
			slide.Content, _ = findBlockText(el.body, "content")
			slide.SpeakerNotes, _ = findBlockText(el.body, "speaker_notes")
			p.Slides = append(p.Slides, slide)
		}
		return p, nil
	})
}

func parsePoints(s, listName string) []string {
	list, ok := findElement(s, listName, block)
	if !ok {
		return nil
	}
	var points []string
	for _, el := range findAllElements(list.body, "point", inline) {
		points = append(points, strings.TrimSpace(el.body))
	}
	return points
}

// ParseExerciseSet parses an <exercise_set> (or <exerciseset>) document.
func ParseExerciseSet(raw string) (*ExerciseSet, error) {
	return guard(TypeExercise, func() (*ExerciseSet, error) {
		root, err := container(raw, "exercise_set")
		if errors.Is(err, ErrContainerNotFound) {
			root, err = container(raw, "exerciseset")
		}
		if err != nil {
			return nil, err
		}
		meta, err := parseMetadata(root)
		if err != nil {
			return nil, err
		}

		set := &ExerciseSet{Metadata: meta, Exercises: []Exercise{}}
		exercises, ok := findElement(root, "exercises", block)
		if !ok {
			return set, nil
		}
		for _, el := range findAllElements(exercises.body, "exercise", block) {
			id, ok := el.id()
			if !ok {
				continue
			}
			question, hasQuestion := findText(el.body, "question")
			solution, hasSolution := findText(el.body, "solution")
			if !hasQuestion || !hasSolution {
				continue
			}

			kind, _ := el.attr("type")
			if kind == "" {
				kind = textOr(el.body, "type", "")
			}
			if kind == "" {
				kind = DefaultExerciseType
			}

			ex := Exercise{
				ID:       id,
				Type:     kind,
				Question: question,
				Answer:   textOr(el.body, "answer", ""),
				Solution: solution,
			}
			if options, ok := findElement(el.body, "options", block); ok {
				ex.Options = parseOptions(options.body)
			}
			set.Exercises = append(set.Exercises, ex)
		}
		return set, nil
	})
}

func parseOptions(s string) []Option {
	options := []Option{}
	for _, el := range findAllElements(s, "option", inline) {
		correct, _ := el.attr("correct")
		options = append(options, Option{
			Text:    strings.TrimSpace(el.body),
			Correct: correct == "true",
		})
	}
	return options
}

func container(raw, name string) (string, error) {
	el, ok := findElement(raw, name, block)
	if !ok {
		return "", fmt.Errorf("%w: <%s>", ErrContainerNotFound, name)
	}
	return el.body, nil
}

// parseMetadata reads the shared header fields from anywhere in the
// container, taking the first match of each.
func parseMetadata(root string) (Metadata, error) {
	standards, err := parseStandards(root)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Title:               textOr(root, "title", ""),
		Subject:             textOr(root, "subject", ""),
		GradeLevel:          textOr(root, "grade_level", ""),
		Language:            textOr(root, "language", DefaultLanguage),
		CurriculumStandards: standards,
	}, nil
}

func parseStandards(root string) ([]string, error) {
	raw, ok := findText(root, "curriculum_standards")
	if !ok {
		return []string{}, nil
	}
	var standards []string
	if err := json.Unmarshal([]byte(raw), &standards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStandards, err)
	}
	if standards == nil {
		standards = []string{}
	}
	return standards, nil
}

// guard converts panics into ErrParseFailed and logs every failure.
func guard[T any](t ContentType, fn func() (*T, error)) (result *T, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrParseFailed, r)
		}
		switch {
		case err == nil:
		case errors.Is(err, ErrContainerNotFound):
			slog.Debug("no content container in generated text", "content_type", t.String())
		default:
			slog.Error("error parsing generated content", "content_type", t.String(), "error", err)
		}
	}()
	return fn()
}
