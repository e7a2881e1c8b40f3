package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/repository"
	apperrors "github.com/comexdesk/broker-portal/pkg/util"
)

func testImporter() *domain.Identity {
	return &domain.Identity{
		ID:     "imp-1",
		Email:  "ana@example.com",
		Role:   domain.RoleImporter,
		Person: domain.Individual{FullName: "Ana Souza", CPF: "11144477735"},
	}
}

func testBroker() *domain.Identity {
	return &domain.Identity{
		ID:     "brk-1",
		Email:  "bruno@example.com",
		Role:   domain.RoleBroker,
		Person: domain.Individual{FullName: "Bruno Lima", CPF: "11144477735"},
	}
}

func newTestTicketService() *TicketService {
	return NewTicketService(TicketDependencies{
		TicketStore: repository.NewMemoryTicketStore(),
	})
}

func createTicket(t *testing.T, svc *TicketService) *domain.Ticket {
	t.Helper()
	ticket, err := svc.Create(context.Background(), testImporter(), TicketCreateInput{
		BrokerID:    "brk-1",
		Title:       "Container stuck at customs",
		Description: "Shipment BL-1234 is held for inspection.",
	})
	require.NoError(t, err)
	return ticket
}

func TestCreate(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.Equal(t, "imp-1", ticket.ImporterRef)
	require.Equal(t, "brk-1", ticket.BrokerRef)
	require.Empty(t, ticket.Messages)
	require.Empty(t, ticket.Attachments)
	require.Nil(t, ticket.PendingEdit)
}

func TestCreate_BrokerDenied(t *testing.T) {
	svc := newTestTicketService()
	_, err := svc.Create(context.Background(), testBroker(), TicketCreateInput{
		BrokerID:    "brk-1",
		Title:       "t",
		Description: "d",
	})
	require.True(t, apperrors.IsAuthorization(err))
}

func TestCreate_ValidationFields(t *testing.T) {
	svc := newTestTicketService()
	_, err := svc.Create(context.Background(), testImporter(), TicketCreateInput{})
	require.True(t, apperrors.IsValidation(err))

	fields := apperrors.FieldErrors(err)
	require.Contains(t, fields, "title")
	require.Contains(t, fields, "description")
	require.Contains(t, fields, "brokerId")
}

func TestChangeStatus_AllowedEdges(t *testing.T) {
	tests := []struct {
		name string
		path []domain.TicketStatus
	}{
		{name: "open to in-progress to completed", path: []domain.TicketStatus{domain.TicketStatusInProgress, domain.TicketStatusCompleted}},
		{name: "open to cancelled", path: []domain.TicketStatus{domain.TicketStatusCancelled}},
		{name: "in-progress to cancelled", path: []domain.TicketStatus{domain.TicketStatusInProgress, domain.TicketStatusCancelled}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestTicketService()
			ticket := createTicket(t, svc)
			for _, next := range tc.path {
				updated, err := svc.ChangeStatus(context.Background(), testBroker(), ticket.ID, next)
				require.NoError(t, err)
				require.Equal(t, next, updated.Status)
			}
		})
	}
}

func TestChangeStatus_InvalidEdges(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	// Open → Completed skips InProgress.
	_, err := svc.ChangeStatus(context.Background(), testBroker(), ticket.ID, domain.TicketStatusCompleted)
	require.True(t, apperrors.IsState(err))

	current, getErr := svc.Get(context.Background(), testBroker(), ticket.ID)
	require.NoError(t, getErr)
	require.Equal(t, domain.TicketStatusOpen, current.Status)
}

func TestChangeStatus_TerminalIsStateError(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	_, err := svc.ChangeStatus(context.Background(), testBroker(), ticket.ID, domain.TicketStatusCancelled)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(context.Background(), testBroker(), ticket.ID, domain.TicketStatusCompleted)
	require.True(t, apperrors.IsState(err), "terminal transition must be a state error, got %v", err)

	current, getErr := svc.Get(context.Background(), testBroker(), ticket.ID)
	require.NoError(t, getErr)
	require.Equal(t, domain.TicketStatusCancelled, current.Status)
}

func TestChangeStatus_ImporterDenied(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	_, err := svc.ChangeStatus(context.Background(), testImporter(), ticket.ID, domain.TicketStatusInProgress)
	require.True(t, apperrors.IsAuthorization(err))
}

func TestChangeStatus_ConcurrentOnlyOneWins(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ChangeStatus(context.Background(), testBroker(), ticket.ID, domain.TicketStatusInProgress)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			// The loser is re-evaluated against the post-transition
			// state, so it fails as an illegal edge.
			require.True(t, apperrors.IsState(err))
		}
	}
	require.Equal(t, 1, succeeded)

	current, err := svc.Get(context.Background(), testBroker(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, current.Status)
}

func TestAppendMessage(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	message, err := svc.AppendMessage(context.Background(), testBroker(), ticket.ID, "  documents received  ", nil)
	require.NoError(t, err)
	require.Equal(t, "documents received", message.Content)
	require.Equal(t, "brk-1", message.Sender.IdentityID)
	require.Equal(t, domain.RoleBroker, message.Sender.Role)
	require.Equal(t, "Bruno Lima", message.Sender.DisplayName)
}

func TestAppendMessage_EmptyContent(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	_, err := svc.AppendMessage(context.Background(), testImporter(), ticket.ID, "   ", nil)
	require.True(t, apperrors.IsValidation(err))
}

func TestAppendMessage_NonParticipantDenied(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	stranger := testImporter()
	stranger.ID = "imp-2"
	_, err := svc.AppendMessage(context.Background(), stranger, ticket.ID, "hello", nil)
	require.True(t, apperrors.IsAuthorization(err))

	current, getErr := svc.Get(context.Background(), testImporter(), ticket.ID)
	require.NoError(t, getErr)
	require.Empty(t, current.Messages)
}

func TestAppendMessage_TerminalIsStateError(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	_, err := svc.ChangeStatus(context.Background(), testBroker(), ticket.ID, domain.TicketStatusCancelled)
	require.NoError(t, err)

	_, err = svc.AppendMessage(context.Background(), testImporter(), ticket.ID, "too late", nil)
	require.True(t, apperrors.IsState(err))
}

func TestAppendMessage_AttachmentsRecorded(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	message, err := svc.AppendMessage(context.Background(), testImporter(), ticket.ID, "invoice attached", []AttachmentInput{
		{FileName: "invoice.pdf", FileType: "application/pdf", SizeBytes: 2048, StorageRef: "tickets/x/invoice.pdf"},
	})
	require.NoError(t, err)
	require.Len(t, message.Attachments, 1)

	current, err := svc.Get(context.Background(), testImporter(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, current.Attachments, 1)
}

func TestAppendMessage_BadAttachmentRejectsWholeMessage(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	_, err := svc.AppendMessage(context.Background(), testImporter(), ticket.ID, "broken upload", []AttachmentInput{
		{FileName: "empty.bin", SizeBytes: 0},
	})
	require.True(t, apperrors.IsValidation(err))

	current, getErr := svc.Get(context.Background(), testImporter(), ticket.ID)
	require.NoError(t, getErr)
	require.Empty(t, current.Messages)
	require.Empty(t, current.Attachments)
}

func TestAppendMessage_ConcurrentAppendsAllSurvive(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	const perSide = 25
	var wg sync.WaitGroup
	for i := 0; i < perSide; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.AppendMessage(context.Background(), testImporter(), ticket.ID, "from importer", nil)
			require.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.AppendMessage(context.Background(), testBroker(), ticket.ID, "from broker", nil)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	first, err := svc.Get(context.Background(), testImporter(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, first.Messages, perSide*2)

	// Two reads of the same ticket must agree on message order.
	second, err := svc.Get(context.Background(), testBroker(), ticket.ID)
	require.NoError(t, err)
	for i := range first.Messages {
		require.Equal(t, first.Messages[i].ID, second.Messages[i].ID)
	}
}

func TestToggleImportant_DoubleToggleRestores(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	message, err := svc.AppendMessage(context.Background(), testImporter(), ticket.ID, "please flag this", nil)
	require.NoError(t, err)
	require.False(t, message.Important)

	toggled, err := svc.ToggleImportant(context.Background(), testBroker(), ticket.ID, message.ID)
	require.NoError(t, err)
	require.True(t, toggled.Important)

	restored, err := svc.ToggleImportant(context.Background(), testImporter(), ticket.ID, message.ID)
	require.NoError(t, err)
	require.False(t, restored.Important)
}

func TestToggleImportant_UnknownMessage(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	_, err := svc.ToggleImportant(context.Background(), testImporter(), ticket.ID, "no-such-message")
	require.True(t, apperrors.IsState(err))
}

func TestEditApproval_ConfirmAppliesPatch(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	newTitle := "Container released paperwork"
	proposed, err := svc.ProposeEdit(context.Background(), testImporter(), ticket.ID, domain.TicketPatch{Title: &newTitle})
	require.NoError(t, err)
	require.NotNil(t, proposed.PendingEdit)

	// Status changes are blocked while the edit is pending.
	_, err = svc.ChangeStatus(context.Background(), testBroker(), ticket.ID, domain.TicketStatusInProgress)
	require.True(t, apperrors.IsState(err))

	confirmed, err := svc.ResolveEdit(context.Background(), testBroker(), ticket.ID, true)
	require.NoError(t, err)
	require.Nil(t, confirmed.PendingEdit)
	require.Equal(t, newTitle, confirmed.Title)

	// Unblocked again.
	_, err = svc.ChangeStatus(context.Background(), testBroker(), ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
}

func TestEditApproval_RejectDiscardsPatch(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)
	originalTitle := ticket.Title

	newTitle := "Something else"
	_, err := svc.ProposeEdit(context.Background(), testBroker(), ticket.ID, domain.TicketPatch{Title: &newTitle})
	require.NoError(t, err)

	rejected, err := svc.ResolveEdit(context.Background(), testImporter(), ticket.ID, false)
	require.NoError(t, err)
	require.Nil(t, rejected.PendingEdit)
	require.Equal(t, originalTitle, rejected.Title)
}

func TestEditApproval_ProposerCannotDecide(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	newTitle := "Changed"
	_, err := svc.ProposeEdit(context.Background(), testImporter(), ticket.ID, domain.TicketPatch{Title: &newTitle})
	require.NoError(t, err)

	_, err = svc.ResolveEdit(context.Background(), testImporter(), ticket.ID, true)
	require.True(t, apperrors.IsAuthorization(err))
}

func TestEditApproval_OnlyOnePending(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	title := "First"
	_, err := svc.ProposeEdit(context.Background(), testImporter(), ticket.ID, domain.TicketPatch{Title: &title})
	require.NoError(t, err)

	other := "Second"
	_, err = svc.ProposeEdit(context.Background(), testBroker(), ticket.ID, domain.TicketPatch{Title: &other})
	require.True(t, apperrors.IsState(err))
}

func TestGet_NonParticipantDenied(t *testing.T) {
	svc := newTestTicketService()
	ticket := createTicket(t, svc)

	stranger := testBroker()
	stranger.ID = "brk-2"
	_, err := svc.Get(context.Background(), stranger, ticket.ID)
	require.True(t, apperrors.IsAuthorization(err))
}

func TestListForIdentity(t *testing.T) {
	svc := newTestTicketService()
	first := createTicket(t, svc)
	second := createTicket(t, svc)

	tickets, err := svc.ListForIdentity(context.Background(), testImporter())
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	ids := []string{tickets[0].ID, tickets[1].ID}
	require.Contains(t, ids, first.ID)
	require.Contains(t, ids, second.ID)

	stranger := testImporter()
	stranger.ID = "imp-9"
	none, err := svc.ListForIdentity(context.Background(), stranger)
	require.NoError(t, err)
	require.Empty(t, none)
}
