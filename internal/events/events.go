package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/domain"
)

// Event types
const (
	TypeSessionCompleted = "session.completed"
)

// Event is a typed message with a JSON payload.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type selects how the payload is decoded
	Type string `json:"type"`

	// Payload contains the event data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the given type and payload.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SessionCompleted is the payload of TypeSessionCompleted.
type SessionCompleted struct {
	SessionID   uuid.UUID                `json:"session_id"`
	UserID      uuid.UUID                `json:"user_id"`
	Mode        domain.TestMode          `json:"test_mode"`
	Theta       float64                  `json:"theta"`
	SE          float64                  `json:"se"`
	Reason      domain.TerminationReason `json:"reason"`
	CompletedAt time.Time                `json:"completed_at"`
}

// NewSessionCompletedEvent builds the event for a completed session.
func NewSessionCompletedEvent(s *domain.Session) (*Event, error) {
	payload := SessionCompleted{
		SessionID: s.ID,
		UserID:    s.UserID,
		Mode:      s.Mode,
		Theta:     s.Theta,
		SE:        s.SE,
		Reason:    s.TerminationReason,
	}
	if s.CompletedAt != nil {
		payload.CompletedAt = *s.CompletedAt
	}
	return NewEvent(TypeSessionCompleted, payload)
}

// EventHandler processes events. Handlers ignore types they do not know.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
