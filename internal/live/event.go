package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Event is one message addressed to a topic.
type Event struct {
	Topic string
	Type  string
	Data  any
}

// Publisher sends events to whoever listens on their topic.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Encode renders the wire form {"type": ..., "data": ...}.
func (e Event) Encode() ([]byte, error) {
	b, err := json.Marshal(envelope{Type: e.Type, Data: e.Data})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return b, nil
}

// CourierTopic is the channel a courier listens on.
func CourierTopic(id uuid.UUID) string { return "courier:" + id.String() }

// CustomerTopic is the channel a customer listens on.
func CustomerTopic(id uuid.UUID) string { return "customer:" + id.String() }
