package amqp

import (
	"encoding/json"
	"time"
)

// Record kinds carried in sync messages. The payload decodes into the
// matching core type.
const (
	KindCustomer  = "customer"
	KindProject   = "project"
	KindTimeEntry = "time_entry"
)

// RecordSyncMessage carries a record that was persisted locally while the
// remote backend was unreachable. The full record travels in the message
// because the local store keeps no per-row sync state to fetch it back by.
type RecordSyncMessage struct {
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRecordSyncMessage wraps a record for publication.
func NewRecordSyncMessage(kind string, record any) (*RecordSyncMessage, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return &RecordSyncMessage{
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
	}, nil
}

// ToJSON converts the message to JSON bytes
func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
