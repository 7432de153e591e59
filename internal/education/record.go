package education

import (
	"encoding/json"
	"fmt"
)

// SharingSettings controls who can open stored content.
type SharingSettings struct {
	Public      bool `json:"public"`
	LinkSharing bool `json:"link_sharing"`
}

// StorageRecord is the row shape of the educational_content table, minus
// the store-assigned id, user_id and created_at.
type StorageRecord struct {
	ContentType         ContentType     `json:"content_type"`
	Title               string          `json:"title"`
	Subject             string          `json:"subject"`
	GradeLevel          string          `json:"grade_level"`
	Language            string          `json:"language"`
	CurriculumStandards []string        `json:"curriculum_standards"`
	ContentData         Content         `json:"content_data"`
	SharingSettings     SharingSettings `json:"sharing_settings"`
}

// ToStorageRecord maps parsed content to its storage row. The content is
// stored as-is, without validation; sharing starts disabled.
func ToStorageRecord(c Content, t ContentType) StorageRecord {
	meta := c.Meta()
	return StorageRecord{
		ContentType:         t,
		Title:               meta.Title,
		Subject:             meta.Subject,
		GradeLevel:          meta.GradeLevel,
		Language:            meta.Language,
		CurriculumStandards: meta.CurriculumStandards,
		ContentData:         c,
		SharingSettings:     SharingSettings{Public: false, LinkSharing: false},
	}
}

// UnmarshalJSON decodes content_data into the concrete type named by
// content_type.
func (r *StorageRecord) UnmarshalJSON(data []byte) error {
	type plain StorageRecord
	var aux struct {
		plain
		ContentData json.RawMessage `json:"content_data"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = StorageRecord(aux.plain)
	r.ContentData = nil
	if len(aux.ContentData) == 0 || string(aux.ContentData) == "null" {
		return nil
	}
	c, err := DecodeContent(r.ContentType, aux.ContentData)
	if err != nil {
		return err
	}
	r.ContentData = c
	return nil
}

// DecodeContent rehydrates the content_data JSON of a stored record.
func DecodeContent(t ContentType, data []byte) (Content, error) {
	var c Content
	switch t {
	case TypeQuiz:
		c = &Quiz{}
	case TypeCourse:
		c = &Course{}
	case TypePresentation:
		c = &Presentation{}
	case TypeExercise:
		c = &ExerciseSet{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, string(t))
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decoding %s content: %w", t, err)
	}
	return c, nil
}
