package education_test

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/p-n-ai/koulutus-bot/internal/education"
)

var placeholder = regexp.MustCompile(`\{[a-z_]+\}`)

func TestBuildPrompt_ReplacesPlaceholders(t *testing.T) {
	got, err := education.BuildPrompt(education.TypeQuiz, "historia", "lukio_1", "sv", map[string]string{})
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}

	if left := placeholder.FindAllString(got, -1); len(left) != 0 {
		t.Errorf("unreplaced placeholders: %v", left)
	}
	for _, want := range []string{
		`aiheesta "historia"`,
		"<subject>historia</subject>",
		"<grade_level>lukio_1</grade_level>",
		"<language>sv</language>",
		"Käytä kieltä: sv",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_DefaultLanguage(t *testing.T) {
	got, err := education.BuildPrompt(education.TypeExercise, "matematiikka", "perusopetus_3-6", "", nil)
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}
	if !strings.Contains(got, "<language>fi</language>") {
		t.Error("empty language should default to fi")
	}
}

func TestBuildPrompt_ExtraParams(t *testing.T) {
	got, err := education.BuildPrompt(education.TypeCourse, "biologia", "lukio_2", "fi", map[string]string{
		"duration": "90",
		"unused":   "x",
	})
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}
	if !strings.Contains(got, "Arvioitu kesto: 90 minuuttia") {
		t.Error("duration not substituted")
	}
	if strings.Contains(got, "{duration}") {
		t.Error("{duration} left in prompt")
	}
}

func TestBuildPrompt_UnsuppliedPlaceholdersKept(t *testing.T) {
	got, err := education.BuildPrompt(education.TypeCourse, "biologia", "lukio_2", "fi", nil)
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}
	left := placeholder.FindAllString(got, -1)
	for _, p := range left {
		if p != "{duration}" {
			t.Errorf("unexpected placeholder %s", p)
		}
	}
	if len(left) == 0 {
		t.Error("{duration} should be left in place when not supplied")
	}
}

func TestBuildPrompt_AllTypes(t *testing.T) {
	for _, ct := range education.AllContentTypes {
		t.Run(ct.String(), func(t *testing.T) {
			got, err := education.BuildPrompt(ct, "kemia", "lukio_3", "fi", map[string]string{"duration": "60"})
			if err != nil {
				t.Fatalf("BuildPrompt() error = %v", err)
			}
			if !strings.Contains(got, "kemia") || !strings.Contains(got, "lukio_3") {
				t.Error("prompt missing subject or grade level")
			}
			if left := placeholder.FindAllString(got, -1); len(left) != 0 {
				t.Errorf("unreplaced placeholders: %v", left)
			}
		})
	}
}

func TestBuildPrompt_UnknownType(t *testing.T) {
	_, err := education.BuildPrompt("video", "kemia", "lukio_3", "fi", nil)
	if !errors.Is(err, education.ErrUnknownContentType) {
		t.Errorf("BuildPrompt() error = %v, want ErrUnknownContentType", err)
	}
}
