package domain

import (
	"context"
)

// EventBus is the event-driven communication contract. Decoy publishes one
// event per message evaluation and one per ended session; the digest worker
// consumes the latter.
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming bus messages.
type MessageHandler func(ctx context.Context, msg *BusMessage) error

// BusMessage represents an event message.
type BusMessage struct {
	ID        string            `json:"id"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string `yaml:"type" json:"type"`

	// Channel settings (Community tier)
	ChannelBufferSize int `yaml:"channelBufferSize" json:"channelBufferSize"`

	// NATS settings (Pro tier)
	NATSUrl           string `yaml:"natsUrl" json:"natsUrl"`
	NATSToken         string `yaml:"natsToken" json:"-"`
	NATSMaxReconnects int    `yaml:"natsMaxReconnects" json:"natsMaxReconnects"`
	NATSReconnectWait int    `yaml:"natsReconnectWait" json:"natsReconnectWait"` // seconds
}

// Standard topic names for the session pipeline.
const (
	TopicEvaluation   = "decoy.evaluation"
	TopicSessionEnded = "decoy.session.ended"
	TopicHighRisk     = "decoy.session.highrisk"
)

// EvaluationEvent is the payload published on TopicEvaluation after each
// scored user message.
type EvaluationEvent struct {
	RoomID     string      `json:"roomId"`
	Scenario   string      `json:"scenario"`
	Evaluation *Evaluation `json:"evaluation"`
}

// SessionEndedEvent is the payload published on TopicSessionEnded when a
// room is finalized.
type SessionEndedEvent struct {
	RoomID       string     `json:"roomId"`
	ScenarioType string     `json:"scenarioType"`
	Level        string     `json:"level"`
	DisplayScore int        `json:"displayScore"`
	TotalScore   float64    `json:"totalScore"`
	TopEvents    []TopEvent `json:"topEvents"`
}
