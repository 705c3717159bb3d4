package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pitaka/internal/core"
)

// RecordChangedMessage announces that one kind of a user's records changed.
// The consumer reloads what it needs from the store.
type RecordChangedMessage struct {
	UserID    string          `json:"userId"`
	Kind      core.RecordKind `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewRecordChangedMessage(userID string, kind core.RecordKind) *RecordChangedMessage {
	return &RecordChangedMessage{
		UserID:    userID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

func (m *RecordChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *RecordChangedMessage) Validate() error {
	if m.UserID == "" {
		return errors.New("message without user id")
	}
	if !m.Kind.IsValid() {
		return fmt.Errorf("message with unknown kind %q", m.Kind)
	}
	return nil
}

// RecordChangedMessageFromJSON decodes and validates a message body.
func RecordChangedMessageFromJSON(data []byte) (*RecordChangedMessage, error) {
	var msg RecordChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
