package generation

import (
	"encoding/json"

	"github.com/p-n-ai/koulutus-bot/internal/education"
)

// EventType names a progress event sent to the client.
type EventType string

const (
	EventStatus   EventType = "status"
	EventContent  EventType = "content"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one progress message of a generation. Which fields are set
// depends on Type.
type Event struct {
	Type             EventType
	Message          string
	Delta            string
	Content          education.Content
	ContentID        string
	CreditsUsed      int
	CreditsRemaining int
}

// MarshalJSON writes only the fields belonging to the event type, so a
// complete event always carries its credit counts, zero included.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventContent:
		return json.Marshal(struct {
			Type  EventType `json:"type"`
			Delta string    `json:"delta"`
		}{e.Type, e.Delta})
	case EventComplete:
		return json.Marshal(struct {
			Type             EventType         `json:"type"`
			Content          education.Content `json:"content"`
			ContentID        string            `json:"contentId,omitempty"`
			CreditsUsed      int               `json:"creditsUsed"`
			CreditsRemaining int               `json:"creditsRemaining"`
		}{e.Type, e.Content, e.ContentID, e.CreditsUsed, e.CreditsRemaining})
	default:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Message string    `json:"message"`
		}{e.Type, e.Message})
	}
}

func statusEvent(msg string) Event {
	return Event{Type: EventStatus, Message: msg}
}
