package education

import (
	"fmt"
	"sort"
	"strings"
)

// BuildPrompt fills the content type's template. {subject}, {grade_level}
// and {language} are replaced everywhere, then every {key} from extra.
// Placeholders without a value are left as they are.
func BuildPrompt(t ContentType, subject, gradeLevel, language string, extra map[string]string) (string, error) {
	info, ok := Lookup(t)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownContentType, string(t))
	}
	if language == "" {
		language = DefaultLanguage
	}

	prompt := info.Template
	prompt = strings.ReplaceAll(prompt, "{subject}", subject)
	prompt = strings.ReplaceAll(prompt, "{grade_level}", gradeLevel)
	prompt = strings.ReplaceAll(prompt, "{language}", language)

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		prompt = strings.ReplaceAll(prompt, "{"+k+"}", extra[k])
	}

	return prompt, nil
}
