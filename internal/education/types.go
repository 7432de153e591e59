package education

// DefaultLanguage is used when generated content or a request omits the language.
const DefaultLanguage = "fi"

// Metadata is the header shared by every content kind.
type Metadata struct {
	Title               string   `json:"title"`
	Subject             string   `json:"subject"`
	GradeLevel          string   `json:"grade_level"`
	Language            string   `json:"language"`
	CurriculumStandards []string `json:"curriculum_standards"`
}

// Content is implemented by *Quiz, *Course, *Presentation and *ExerciseSet.
type Content interface {
	Kind() ContentType
	Meta() Metadata
}

// Option is a selectable answer of a quiz question or exercise.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// QuizQuestion is a single multiple-choice question. ID comes from the
// generated text and is not renumbered.
type QuizQuestion struct {
	ID          int      `json:"id"`
	Text        string   `json:"text"`
	Options     []Option `json:"options"`
	Explanation string   `json:"explanation"`
}

// Quiz is a parsed multiple-choice test.
type Quiz struct {
	Metadata  Metadata       `json:"metadata"`
	Questions []QuizQuestion `json:"questions"`
}

func (q *Quiz) Kind() ContentType { return TypeQuiz }
func (q *Quiz) Meta() Metadata    { return q.Metadata }

// ModuleContentType classifies a block of course module material.
type ModuleContentType string

const (
	ModuleContentText     ModuleContentType = "text"
	ModuleContentVideo    ModuleContentType = "video"
	ModuleContentActivity ModuleContentType = "activity"
	ModuleContentReading  ModuleContentType = "reading"
)

// ModuleActivity holds instructions for an activity block.
type ModuleActivity struct {
	Instructions  string `json:"instructions"`
	EstimatedTime string `json:"estimatedTime,omitempty"`
}

// ModuleContent is one block of material inside a course module.
// Content may carry HTML.
type ModuleContent struct {
	Type     ModuleContentType `json:"type"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Activity *ModuleActivity   `json:"activity,omitempty"`
}

// Activity is a hands-on task attached to a module.
type Activity struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CourseModule is one unit of a course.
type CourseModule struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Content     []ModuleContent `json:"content"`
	Activities  []Activity      `json:"activities"`
	Duration    int             `json:"duration"`
}

// CourseMetadata extends Metadata with course length information.
type CourseMetadata struct {
	Metadata
	Description       string `json:"description,omitempty"`
	Duration          int    `json:"duration"` // minutes
	EstimatedDuration string `json:"estimatedDuration,omitempty"`
}

// Course is a parsed multi-module course.
type Course struct {
	Metadata           CourseMetadata `json:"metadata"`
	Modules            []CourseModule `json:"modules"`
	LearningObjectives []string       `json:"learning_objectives"`
}

func (c *Course) Kind() ContentType { return TypeCourse }
func (c *Course) Meta() Metadata    { return c.Metadata.Metadata }

// Slide is a single presentation slide. Content may carry HTML.
type Slide struct {
	ID               int      `json:"id"`
	Type             string   `json:"type"`
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	BulletPoints     []string `json:"bulletPoints,omitempty"`
	DiscussionPoints []string `json:"discussion_points,omitempty"`
	SpeakerNotes     string   `json:"speakerNotes,omitempty"`
}

// PresentationMetadata extends Metadata with presentation extras.
// GradeLevelAlias mirrors GradeLevel for clients that read camelCase keys.
type PresentationMetadata struct {
	Metadata
	Description       string `json:"description,omitempty"`
	GradeLevelAlias   string `json:"gradeLevel,omitempty"`
	EstimatedDuration string `json:"estimatedDuration,omitempty"`
}

// Presentation is a parsed slide deck.
type Presentation struct {
	Metadata PresentationMetadata `json:"metadata"`
	Slides   []Slide              `json:"slides"`
}

func (p *Presentation) Kind() ContentType { return TypePresentation }
func (p *Presentation) Meta() Metadata    { return p.Metadata.Metadata }

// DefaultExerciseType is assigned to exercises that do not declare a type.
const DefaultExerciseType = "short_answer"

// Exercise is a single practice task. Options and Answer are optional;
// Solution is always present on parsed exercises.
type Exercise struct {
	ID       int      `json:"id"`
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Options  []Option `json:"options,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Solution string   `json:"solution"`
}

// ExerciseSet is a parsed collection of exercises.
type ExerciseSet struct {
	Metadata  Metadata   `json:"metadata"`
	Exercises []Exercise `json:"exercises"`
}

func (e *ExerciseSet) Kind() ContentType { return TypeExercise }
func (e *ExerciseSet) Meta() Metadata    { return e.Metadata }
