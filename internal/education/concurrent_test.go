package education_test

import (
	"reflect"
	"sync"
	"testing"

	"github.com/p-n-ai/koulutus-bot/internal/education"
)

// The parser, prompt builder and validator share only the read-only
// registry, so concurrent callers must see the same results as a serial one.
func TestCore_ConcurrentUse(t *testing.T) {
	inputs := map[education.ContentType]string{
		education.TypeQuiz:         scenarioQuiz,
		education.TypeCourse:       sampleCourse,
		education.TypePresentation: samplePresentation,
		education.TypeExercise:     sampleExercises,
	}

	type result struct {
		content education.Content
		prompt  string
	}
	want := make(map[education.ContentType]result, len(inputs))
	for ct, raw := range inputs {
		c, err := education.Parse(raw, ct)
		if err != nil {
			t.Fatalf("Parse(%s) error = %v", ct, err)
		}
		p, err := education.BuildPrompt(ct, "matematiikka", "perusopetus_3-6", "fi", map[string]string{"topic": "murtoluvut"})
		if err != nil {
			t.Fatalf("BuildPrompt(%s) error = %v", ct, err)
		}
		want[ct] = result{content: c, prompt: p}
	}
	wantValidation := education.ValidateQuiz(want[education.TypeQuiz].content.(*education.Quiz))

	const workers = 16
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ct, raw := range inputs {
				c, err := education.Parse(raw, ct)
				if err != nil {
					t.Errorf("Parse(%s) error = %v", ct, err)
					return
				}
				if !reflect.DeepEqual(c, want[ct].content) {
					t.Errorf("Parse(%s) differs from the serial result", ct)
				}
				p, err := education.BuildPrompt(ct, "matematiikka", "perusopetus_3-6", "fi", map[string]string{"topic": "murtoluvut"})
				if err != nil || p != want[ct].prompt {
					t.Errorf("BuildPrompt(%s) differs from the serial result (err %v)", ct, err)
				}
				if q, ok := c.(*education.Quiz); ok {
					if got := education.ValidateQuiz(q); !reflect.DeepEqual(got, wantValidation) {
						t.Errorf("ValidateQuiz() = %+v, want %+v", got, wantValidation)
					}
				}
			}
		}()
	}
	wg.Wait()
}
