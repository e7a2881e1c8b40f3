package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/comexdesk/broker-portal/internal/domain"
	apperrors "github.com/comexdesk/broker-portal/pkg/util"
)

type ticketEntry struct {
	mu     sync.Mutex
	ticket *domain.Ticket
}

// memoryTicketStore keeps tickets in a map with one lock per ticket.
type memoryTicketStore struct {
	mu      sync.RWMutex
	entries map[string]*ticketEntry
}

// NewMemoryTicketStore builds an empty in-memory store.
func NewMemoryTicketStore() TicketStore {
	return &memoryTicketStore{entries: make(map[string]*ticketEntry)}
}

func (s *memoryTicketStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[ticket.ID]; exists {
		return apperrors.NewConflict("ticket already exists")
	}
	s.entries[ticket.ID] = &ticketEntry{ticket: ticket.Clone()}
	return nil
}

func (s *memoryTicketStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.ticket.Clone(), nil
}

// Mutate applies fn to a working copy under the per-ticket lock and
// swaps it in only on success, so a failed operation leaves no partial
// write behind.
func (s *memoryTicketStore) Mutate(ctx context.Context, id string, fn func(*domain.Ticket) error) (*domain.Ticket, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	working := entry.ticket.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	entry.ticket = working
	return working.Clone(), nil
}

func (s *memoryTicketStore) ListByParticipant(ctx context.Context, identityID string) ([]domain.Ticket, error) {
	s.mu.RLock()
	entries := make([]*ticketEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	tickets := make([]domain.Ticket, 0)
	for _, entry := range entries {
		entry.mu.Lock()
		if entry.ticket.Participant(identityID) {
			tickets = append(tickets, *entry.ticket.Clone())
		}
		entry.mu.Unlock()
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	return tickets, nil
}

func (s *memoryTicketStore) entry(id string) (*ticketEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket")
	}
	return entry, nil
}
