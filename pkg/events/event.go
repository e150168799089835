package events

import "time"

// Event is the contract every message on the bus satisfies.
type Event interface {
	// EventType returns the unique code for this event (e.g. "USER_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used by publishers that do not need
// a dedicated type.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string               { return e.Type }
func (e BaseEvent) Payload() map[string]interface{} { return e.Data }
func (e BaseEvent) Timestamp() time.Time            { return e.OccurredAt }

// New builds a BaseEvent stamped with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

// Event codes published by this service.
const (
	UserCreated  = "USER_CREATED"
	UserUpdated  = "USER_UPDATED"
	UserBlocked  = "USER_BLOCKED"
	UserDeleted  = "USER_DELETED"
	ReplyArrived = "CHAT_REPLY_ARRIVED"
	StoreChanged = "VECTOR_STORE_CHANGED"
)
