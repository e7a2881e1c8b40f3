package repository

import (
	"context"

	"github.com/comexdesk/broker-portal/internal/domain"
)

// TicketStore encapsulates ticket persistence. The ticket is the unit
// of mutual exclusion: Mutate calls for the same id are serialized,
// different tickets proceed independently. Get and List return deep
// snapshots, so readers never observe a mutation in progress.
type TicketStore interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	// Mutate runs fn on the live ticket under its lock and returns a
	// snapshot of the result. If fn errors, nothing is applied.
	Mutate(ctx context.Context, id string, fn func(*domain.Ticket) error) (*domain.Ticket, error)
	ListByParticipant(ctx context.Context, identityID string) ([]domain.Ticket, error)
}
