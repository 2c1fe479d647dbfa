package events

import (
	"time"

	"github.com/catalog-hub/catalog-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventLoggedOut      EventType = "logged_out"
)

// AuthEventTypes lists every event the auth flows publish.
func AuthEventTypes() []EventType {
	return []EventType{EventUserRegistered, EventLoginSucceeded, EventLoginFailed, EventLoggedOut}
}

// Event represents an authentication event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string `json:"email"`
}

// LoginSucceededPayload payload.
type LoginSucceededPayload struct {
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// LoginFailedPayload payload. Code is the failure code returned to the client, so an
// unknown email and a wrong password look the same here too.
type LoginFailedPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
