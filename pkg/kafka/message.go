package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is an event envelope plus the broker metadata that arrives with it.
type Message struct {
	Key       string            // partition key, typically a booking or workshop ID
	Value     []byte            // JSON-encoded payload
	Headers   map[string]string
	Topic     string
	Partition int   // set by the broker
	Offset    int64 // set by the broker
	Timestamp time.Time
}

// Header keys shared by every service publishing or consuming events.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSource        = "source"
	HeaderSchemaVersion = "schema-version"
	HeaderRetryCount    = "retry-count"
	HeaderOriginalTopic = "original-topic"
)

// MessageBuilder assembles a Message step by step.
type MessageBuilder struct {
	msg Message
	err error
}

// NewMessage starts a builder with a fresh header map and timestamp.
func NewMessage() *MessageBuilder {
	return &MessageBuilder{
		msg: Message{
			Headers:   make(map[string]string),
			Timestamp: time.Now(),
		},
	}
}

// WithKey sets the partition key.
func (mb *MessageBuilder) WithKey(key string) *MessageBuilder {
	mb.msg.Key = key
	return mb
}

// WithValue JSON-encodes the payload. Encoding failures surface on Build.
func (mb *MessageBuilder) WithValue(value interface{}) *MessageBuilder {
	data, err := json.Marshal(value)
	if err != nil {
		mb.err = err
		return mb
	}
	mb.msg.Value = data
	return mb
}

// WithEventID sets the event ID header, minting a UUID when empty.
func (mb *MessageBuilder) WithEventID(eventID string) *MessageBuilder {
	if eventID == "" {
		eventID = uuid.New().String()
	}
	mb.msg.Headers[HeaderEventID] = eventID
	return mb
}

// WithEventType sets the event type header.
func (mb *MessageBuilder) WithEventType(eventType string) *MessageBuilder {
	mb.msg.Headers[HeaderEventType] = eventType
	return mb
}

// WithSource names the service that produced the event.
func (mb *MessageBuilder) WithSource(source string) *MessageBuilder {
	mb.msg.Headers[HeaderSource] = source
	return mb
}

// WithHeader adds an arbitrary header.
func (mb *MessageBuilder) WithHeader(key, value string) *MessageBuilder {
	mb.msg.Headers[key] = value
	return mb
}

// Build returns the assembled message or the first error recorded along the way.
func (mb *MessageBuilder) Build() (Message, error) {
	if mb.err != nil {
		return Message{}, mb.err
	}
	if mb.msg.Key == "" {
		return Message{}, ErrEmptyKey
	}
	if len(mb.msg.Value) == 0 {
		return Message{}, ErrEmptyValue
	}
	return mb.msg, nil
}

// EventType reads the event type header of a consumed message.
func (m Message) EventType() string {
	return m.Headers[HeaderEventType]
}

// Decode unmarshals the payload into out.
func (m Message) Decode(out interface{}) error {
	return json.Unmarshal(m.Value, out)
}
