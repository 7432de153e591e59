// Package export renders stored educational content as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/koulutus-bot/internal/education"
)

// Sheet names.
const (
	SheetMetadata   = "Metadata"
	SheetQuestions  = "Questions"
	SheetModules    = "Modules"
	SheetObjectives = "Objectives"
	SheetSlides     = "Slides"
	SheetExercises  = "Exercises"
)

// ContentTypeXLSX is the MIME type of the written workbook.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type workbook struct {
	f    *excelize.File
	bold int
}

// WriteXLSX writes c as a workbook: a Metadata sheet plus one sheet per
// kind of entry the content holds.
func WriteXLSX(w io.Writer, c education.Content) error {
	if c == nil {
		return fmt.Errorf("no content to export")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	wb := &workbook{f: f, bold: bold}

	if err := f.SetSheetName("Sheet1", SheetMetadata); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := wb.metadata(c); err != nil {
		return err
	}

	switch v := c.(type) {
	case *education.Quiz:
		err = wb.quiz(v)
	case *education.Course:
		err = wb.course(v)
	case *education.Presentation:
		err = wb.presentation(v)
	case *education.ExerciseSet:
		err = wb.exercises(v)
	default:
		err = fmt.Errorf("%w: %T", education.ErrUnknownContentType, c)
	}
	if err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (wb *workbook) metadata(c education.Content) error {
	meta := c.Meta()
	rows := [][]any{
		{"Field", "Value"},
		{"Content type", string(c.Kind())},
		{"Title", meta.Title},
		{"Subject", meta.Subject},
		{"Grade level", meta.GradeLevel},
		{"Language", meta.Language},
		{"Curriculum standards", strings.Join(meta.CurriculumStandards, ", ")},
	}
	switch v := c.(type) {
	case *education.Course:
		rows = append(rows,
			[]any{"Description", v.Metadata.Description},
			[]any{"Duration (min)", v.Metadata.Duration},
			[]any{"Estimated duration", v.Metadata.EstimatedDuration},
		)
	case *education.Presentation:
		rows = append(rows,
			[]any{"Description", v.Metadata.Description},
			[]any{"Estimated duration", v.Metadata.EstimatedDuration},
		)
	}
	return wb.sheet(SheetMetadata, rows, 24, 60)
}

func (wb *workbook) quiz(q *education.Quiz) error {
	rows := [][]any{{"ID", "Question", "Option", "Correct", "Explanation"}}
	for _, question := range q.Questions {
		if len(question.Options) == 0 {
			rows = append(rows, []any{question.ID, question.Text, "", "", question.Explanation})
			continue
		}
		for _, o := range question.Options {
			rows = append(rows, []any{question.ID, question.Text, o.Text, mark(o.Correct), question.Explanation})
		}
	}
	return wb.sheet(SheetQuestions, rows, 6, 50, 30, 8, 50)
}

func (wb *workbook) course(c *education.Course) error {
	rows := [][]any{{"ID", "Title", "Description", "Duration (min)", "Content", "Activities"}}
	for _, m := range c.Modules {
		var content, activities []string
		for _, mc := range m.Content {
			content = append(content, mc.Content)
		}
		for _, a := range m.Activities {
			activities = append(activities, a.Type+": "+a.Description)
		}
		rows = append(rows, []any{
			m.ID, m.Title, m.Description, m.Duration,
			strings.Join(content, "\n\n"), strings.Join(activities, "\n"),
		})
	}
	if err := wb.sheet(SheetModules, rows, 6, 30, 40, 14, 60, 40); err != nil {
		return err
	}

	objectives := [][]any{{"#", "Objective"}}
	for i, o := range c.LearningObjectives {
		objectives = append(objectives, []any{i + 1, o})
	}
	return wb.sheet(SheetObjectives, objectives, 6, 70)
}

func (wb *workbook) presentation(p *education.Presentation) error {
	rows := [][]any{{"ID", "Type", "Title", "Content", "Bullet points", "Discussion points", "Speaker notes"}}
	for _, s := range p.Slides {
		rows = append(rows, []any{
			s.ID, s.Type, s.Title, s.Content,
			strings.Join(s.BulletPoints, "\n"),
			strings.Join(s.DiscussionPoints, "\n"),
			s.SpeakerNotes,
		})
	}
	return wb.sheet(SheetSlides, rows, 6, 12, 30, 50, 40, 40, 40)
}

func (wb *workbook) exercises(set *education.ExerciseSet) error {
	rows := [][]any{{"ID", "Type", "Question", "Options", "Answer", "Solution"}}
	for _, e := range set.Exercises {
		var options []string
		for i, o := range e.Options {
			line := strconv.Itoa(i+1) + ". " + o.Text
			if o.Correct {
				line += " " + mark(true)
			}
			options = append(options, line)
		}
		rows = append(rows, []any{e.ID, e.Type, e.Question, strings.Join(options, "\n"), e.Answer, e.Solution})
	}
	return wb.sheet(SheetExercises, rows, 6, 16, 50, 30, 20, 50)
}

// sheet writes rows starting at A1, bolds the header row and sets column
// widths from left to right.
func (wb *workbook) sheet(name string, rows [][]any, widths ...float64) error {
	if idx, _ := wb.f.GetSheetIndex(name); idx < 0 {
		if _, err := wb.f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := wb.f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+1, err)
		}
	}
	if err := wb.f.SetRowStyle(name, 1, 1, wb.bold); err != nil {
		return fmt.Errorf("style %s header: %w", name, err)
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := wb.f.SetColWidth(name, col, col, width); err != nil {
			return fmt.Errorf("size %s column %s: %w", name, col, err)
		}
	}
	return nil
}

func mark(correct bool) string {
	if correct {
		return "✓"
	}
	return ""
}
