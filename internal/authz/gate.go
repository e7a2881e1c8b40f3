// Package authz is the pure capability gate. It holds no state and is
// safe to call concurrently without synchronization.
package authz

import "github.com/comexdesk/broker-portal/internal/domain"

// Capability is a named permission checked before an operation runs.
// The set is closed; nothing else is ever granted.
type Capability string

const (
	ViewTicket          Capability = "VIEW_TICKET"
	CreateTicket        Capability = "CREATE_TICKET"
	ChangeStatus        Capability = "CHANGE_STATUS"
	SendMessage         Capability = "SEND_MESSAGE"
	ViewBrokerContact   Capability = "VIEW_BROKER_CONTACT"
	ViewImporterContact Capability = "VIEW_IMPORTER_CONTACT"
)

// Allow decides whether the identity holds the capability, optionally
// scoped to a ticket. A nil or soft-deleted identity is denied every
// capability unconditionally.
func Allow(identity *domain.Identity, capability Capability, ticket *domain.Ticket) bool {
	if !identity.Authenticatable() {
		return false
	}

	switch capability {
	case CreateTicket:
		return identity.Role == domain.RoleImporter

	case ChangeStatus:
		if ticket == nil || ticket.Status.Terminal() {
			return false
		}
		return identity.Role == domain.RoleBroker && identity.ID == ticket.BrokerRef

	case SendMessage:
		if ticket == nil || !ticket.Participant(identity.ID) {
			return false
		}
		return ticket.Status == domain.TicketStatusOpen || ticket.Status == domain.TicketStatusInProgress

	case ViewTicket, ViewBrokerContact, ViewImporterContact:
		return ticket.Participant(identity.ID)

	default:
		return false
	}
}
