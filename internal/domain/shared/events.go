package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

const (
	EventApplicationSubmitted      EventType = "application.submitted"
	EventApplicationStatusChanged  EventType = "application.status_changed"
	EventNotificationsAcknowledged EventType = "notification.acknowledged"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]any
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

func (e BaseEvent) EventType() EventType  { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.AggregateId }

// NewBaseEvent creates a new base event stamped with the current time.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ApplicationSubmittedEvent is emitted after a student's application is stored.
type ApplicationSubmittedEvent struct {
	BaseEvent
	StudentID     string `json:"student_id"`
	ScholarshipID string `json:"scholarship_id"`
	Qualifies     bool   `json:"qualifies"`
}

// Payload implements Event interface.
func (e ApplicationSubmittedEvent) Payload() map[string]any {
	return map[string]any{
		"student_id":     e.StudentID,
		"scholarship_id": e.ScholarshipID,
		"qualifies":      e.Qualifies,
	}
}

// NewApplicationSubmittedEvent creates a new ApplicationSubmittedEvent.
func NewApplicationSubmittedEvent(applicationID, studentID, scholarshipID string, qualifies bool) ApplicationSubmittedEvent {
	return ApplicationSubmittedEvent{
		BaseEvent:     NewBaseEvent(EventApplicationSubmitted, applicationID),
		StudentID:     studentID,
		ScholarshipID: scholarshipID,
		Qualifies:     qualifies,
	}
}

// ApplicationStatusChangedEvent is emitted after an admin changes an application's status.
type ApplicationStatusChangedEvent struct {
	BaseEvent
	From    string `json:"from"`
	To      string `json:"to"`
	Trigger string `json:"trigger"` // "approve", "reject" or "edit"
	ActorID string `json:"actor_id"`
}

// Payload implements Event interface.
func (e ApplicationStatusChangedEvent) Payload() map[string]any {
	return map[string]any{
		"from":     e.From,
		"to":       e.To,
		"trigger":  e.Trigger,
		"actor_id": e.ActorID,
	}
}

// NewApplicationStatusChangedEvent creates a new ApplicationStatusChangedEvent.
func NewApplicationStatusChangedEvent(applicationID, from, to, trigger, actorID string) ApplicationStatusChangedEvent {
	return ApplicationStatusChangedEvent{
		BaseEvent: NewBaseEvent(EventApplicationStatusChanged, applicationID),
		From:      from,
		To:        to,
		Trigger:   trigger,
		ActorID:   actorID,
	}
}

// NotificationsAcknowledgedEvent is emitted after an admin marks pending applications as seen.
type NotificationsAcknowledgedEvent struct {
	BaseEvent
	UpdatedCount int64 `json:"updated_count"`
}

// Payload implements Event interface.
func (e NotificationsAcknowledgedEvent) Payload() map[string]any {
	return map[string]any{"updated_count": e.UpdatedCount}
}

// NewNotificationsAcknowledgedEvent creates a new NotificationsAcknowledgedEvent.
// The aggregate is the acknowledging admin.
func NewNotificationsAcknowledgedEvent(adminID string, updated int64) NotificationsAcknowledgedEvent {
	return NotificationsAcknowledgedEvent{
		BaseEvent:    NewBaseEvent(EventNotificationsAcknowledged, adminID),
		UpdatedCount: updated,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards events. Used where no bus is wired.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
