package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Operations carried by a FieldChangeMessage.
const (
	OpSet   = "set"
	OpClear = "clear"
)

// FieldChangeMessage announces one write to the budget store. A clear
// message has an empty Key and Value.
type FieldChangeMessage struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	Key       string    `json:"key,omitempty"`
	Value     string    `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSetMessage builds a message for a key write.
func NewSetMessage(key, value string) *FieldChangeMessage {
	return &FieldChangeMessage{
		ID:        uuid.NewString(),
		Op:        OpSet,
		Key:       key,
		Value:     value,
		Timestamp: time.Now().UTC(),
	}
}

// NewClearMessage builds a message for a full reset.
func NewClearMessage() *FieldChangeMessage {
	return &FieldChangeMessage{
		ID:        uuid.NewString(),
		Op:        OpClear,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *FieldChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FieldChangeMessageFromJSON decodes and checks a message body.
func FieldChangeMessageFromJSON(data []byte) (*FieldChangeMessage, error) {
	var msg FieldChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := uuid.Validate(msg.ID); err != nil {
		return nil, errors.New("message id is not a uuid")
	}
	switch msg.Op {
	case OpSet:
		if msg.Key == "" {
			return nil, errors.New("set message without key")
		}
	case OpClear:
	default:
		return nil, errors.New("unknown op " + msg.Op)
	}
	return &msg, nil
}
