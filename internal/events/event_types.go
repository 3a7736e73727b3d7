package events

import (
	"time"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserVerified   EventType = "user_verified"
)

// Event represents a domain event emitted by services.
type Event struct {
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload. Never carries the verification code.
type UserRegisteredPayload struct {
	Email   string `json:"email"`
	Created bool   `json:"created"`
}

// UserVerifiedPayload payload.
type UserVerifiedPayload struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}
