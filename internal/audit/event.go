// Package audit emits best-effort audit events for identity synchronization
// outcomes. Events flow to Kafka when brokers are configured; cmd/worker
// consumes them and pushes to Loki. Emission never blocks or fails a request.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the gateway.
const (
	EventUserRegistered       = "user_registered"
	EventSyncConflict         = "sync_conflict"
	EventDirectoryUnavailable = "directory_unavailable"
)

// Event is a single audit record. Subject is the effective user id the
// event concerns; Detail is a short operator-facing message.
type Event struct {
	ID        string    `json:"id"`
	EventType string    `json:"eventType"`
	Subject   string    `json:"subject"`
	Detail    string    `json:"detail,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEvent returns an Event of the given type for subject, stamped now.
func NewEvent(eventType, subject, detail string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		EventType: eventType,
		Subject:   subject,
		Detail:    detail,
		Source:    "gateway",
		CreatedAt: time.Now().UTC(),
	}
}
