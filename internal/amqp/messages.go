package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Action says what happened to an entry.
type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

var ErrInvalidAction = errors.New("invalid entry action")

// EntryChangedMessage announces that an entry was written or removed.
// It carries only the id; consumers read the current record from the store.
type EntryChangedMessage struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryChangedMessage(id string, action Action) *EntryChangedMessage {
	return &EntryChangedMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *EntryChangedMessage) Validate() error {
	if m.ID == "" {
		return errors.New("empty entry id")
	}
	if m.Action != ActionUpsert && m.Action != ActionDelete {
		return fmt.Errorf("%w: %q", ErrInvalidAction, m.Action)
	}
	return nil
}

func (m *EntryChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryChangedMessageFromJSON decodes and validates a message body.
func EntryChangedMessageFromJSON(data []byte) (*EntryChangedMessage, error) {
	var msg EntryChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
