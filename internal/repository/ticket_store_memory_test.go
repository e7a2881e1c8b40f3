package repository

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comexdesk/broker-portal/internal/domain"
)

func seedTicket(t *testing.T, store TicketStore, id string, createdAt time.Time) {
	t.Helper()
	err := store.Create(context.Background(), &domain.Ticket{
		ID:          id,
		Title:       "seed",
		Description: "seed",
		Status:      domain.TicketStatusOpen,
		ImporterRef: "imp-1",
		BrokerRef:   "brk-1",
		Messages:    []domain.Message{},
		Attachments: map[string]domain.Attachment{},
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	})
	require.NoError(t, err)
}

func TestCreateRejectsDuplicate(t *testing.T) {
	store := NewMemoryTicketStore()
	seedTicket(t, store, "t-1", time.Now())

	err := store.Create(context.Background(), &domain.Ticket{ID: "t-1"})
	require.Error(t, err)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewMemoryTicketStore()
	seedTicket(t, store, "t-1", time.Now())

	first, err := store.Get(context.Background(), "t-1")
	require.NoError(t, err)
	first.Title = "mutated by caller"
	first.Attachments["rogue"] = domain.Attachment{ID: "rogue"}

	second, err := store.Get(context.Background(), "t-1")
	require.NoError(t, err)
	require.Equal(t, "seed", second.Title)
	require.Empty(t, second.Attachments)
}

func TestMutateFailureLeavesNoPartialWrite(t *testing.T) {
	store := NewMemoryTicketStore()
	seedTicket(t, store, "t-1", time.Now())

	_, err := store.Mutate(context.Background(), "t-1", func(ticket *domain.Ticket) error {
		ticket.Title = "half-done"
		ticket.Messages = append(ticket.Messages, domain.Message{ID: "m-1"})
		return errors.New("validation blew up mid-apply")
	})
	require.Error(t, err)

	current, getErr := store.Get(context.Background(), "t-1")
	require.NoError(t, getErr)
	require.Equal(t, "seed", current.Title)
	require.Empty(t, current.Messages)
}

func TestMutateSerializesPerTicket(t *testing.T) {
	store := NewMemoryTicketStore()
	seedTicket(t, store, "t-1", time.Now())

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Mutate(context.Background(), "t-1", func(ticket *domain.Ticket) error {
				ticket.Messages = append(ticket.Messages, domain.Message{ID: "m-" + strconv.Itoa(len(ticket.Messages))})
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	current, err := store.Get(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, current.Messages, workers)
	// Each mutation observed the full history of those before it.
	for i, message := range current.Messages {
		require.Equal(t, "m-"+strconv.Itoa(i), message.ID)
	}
}

func TestMutateUnknownTicket(t *testing.T) {
	store := NewMemoryTicketStore()
	_, err := store.Mutate(context.Background(), "nope", func(*domain.Ticket) error { return nil })
	require.Error(t, err)
}

func TestListByParticipant(t *testing.T) {
	store := NewMemoryTicketStore()
	base := time.Now()
	seedTicket(t, store, "t-2", base.Add(time.Second))
	seedTicket(t, store, "t-1", base)

	forImporter, err := store.ListByParticipant(context.Background(), "imp-1")
	require.NoError(t, err)
	require.Len(t, forImporter, 2)
	require.Equal(t, "t-1", forImporter[0].ID)
	require.Equal(t, "t-2", forImporter[1].ID)

	forBroker, err := store.ListByParticipant(context.Background(), "brk-1")
	require.NoError(t, err)
	require.Len(t, forBroker, 2)

	none, err := store.ListByParticipant(context.Background(), "someone-else")
	require.NoError(t, err)
	require.Empty(t, none)
}
