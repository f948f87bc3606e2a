package amqp

import (
	"encoding/json"
	"time"
)

// StateSyncMessage asks the sync worker to push one group's budget state
// to the remote document store. It carries only the key and the local
// revision; the worker reads the snapshot itself, so a burst of edits
// collapses into pushing whatever is newest.
type StateSyncMessage struct {
	GroupKey  string    `json:"groupKey"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStateSyncMessage creates a sync message for a freshly saved state.
func NewStateSyncMessage(groupKey string, revision int64) *StateSyncMessage {
	return &StateSyncMessage{
		GroupKey:  groupKey,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *StateSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StateSyncMessageFromJSON creates a message from JSON bytes
func StateSyncMessageFromJSON(data []byte) (*StateSyncMessage, error) {
	var msg StateSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
