package events

import (
	"time"

	"github.com/comexdesk/broker-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketMessageAdded  EventType = "ticket_message_added"
	EventMessageFlagToggled  EventType = "message_flag_toggled"
	EventTicketEditProposed  EventType = "ticket_edit_proposed"
	EventTicketEditResolved  EventType = "ticket_edit_resolved"
	EventAccountDeleted      EventType = "account_deleted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	IdentityID string      `json:"identity_id"`
	Role       domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ImporterRef string `json:"importer_ref"`
	BrokerRef   string `json:"broker_ref"`
	Title       string `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID       string      `json:"message_id"`
	SenderID        string      `json:"sender_id"`
	SenderRole      domain.Role `json:"sender_role"`
	BodyPreview     string      `json:"body_preview"`
	AttachmentCount int         `json:"attachment_count"`
}

// MessageFlagToggledPayload payload.
type MessageFlagToggledPayload struct {
	MessageID string `json:"message_id"`
	Important bool   `json:"important"`
}

// TicketEditResolvedPayload payload.
type TicketEditResolvedPayload struct {
	Confirmed bool `json:"confirmed"`
}

// AccountDeletedPayload payload.
type AccountDeletedPayload struct {
	PrincipalID string `json:"principal_id"`
}
