package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"journal-live/domain"
	"journal-live/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// JournalRef is the payload of subscribe, unsubscribe and typing events.
type JournalRef struct {
	JournalID domain.JournalID `json:"journal_id" validate:"required,max=128"`
}

type MessageRead struct {
	MessageID string           `json:"message_id" validate:"required,max=128"`
	JournalID domain.JournalID `json:"journal_id" validate:"required,max=128"`
}

// Inbound is a decoded client event. Payload is JournalRef or MessageRead.
type Inbound struct {
	Type    Type
	Payload any
}

func (i Inbound) JournalID() domain.JournalID {
	switch p := i.Payload.(type) {
	case JournalRef:
		return p.JournalID
	case MessageRead:
		return p.JournalID
	}
	return ""
}

type inboundFrame struct {
	Event Type            `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Decode parses and validates a client frame. Any unknown event, unknown field
// or missing attribute yields ErrInvalidEvent.
func Decode(frame []byte) (Inbound, error) {
	var raw inboundFrame
	if err := json.Unmarshal(frame, &raw); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err)
	}
	switch raw.Event {
	case SubscribeJournalType, UnsubscribeJournalType, TypingStartType, TypingStopType:
		var ref JournalRef
		if err := decodeData(raw.Data, &ref); err != nil {
			return Inbound{}, err
		}
		return Inbound{Type: raw.Event, Payload: ref}, nil
	case MessageReadType:
		var read MessageRead
		if err := decodeData(raw.Data, &read); err != nil {
			return Inbound{}, err
		}
		return Inbound{Type: raw.Event, Payload: read}, nil
	case "":
		return Inbound{}, fmt.Errorf("%w: missing event name", errors.ErrInvalidEvent)
	default:
		return Inbound{}, fmt.Errorf("%w: unknown event %q", errors.ErrInvalidEvent, raw.Event)
	}
}

func decodeData(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errors.ErrInvalidEvent)
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err)
	}
	if err := validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidEvent, err)
	}
	return nil
}
