package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/comexdesk/broker-portal/internal/authz"
	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/events"
	"github.com/comexdesk/broker-portal/internal/repository"
	apperrors "github.com/comexdesk/broker-portal/pkg/util"
)

// TicketService coordinates the ticket workflow: creation, status
// transitions, message threading, attachment association, and
// edit-approval gating. All mutations to one ticket are serialized by
// the store; operations either fully apply or fully fail.
type TicketService struct {
	tickets    repository.TicketStore
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketStore repository.TicketStore
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload. BrokerID names
// the counter-party; the caller resolves and role-checks it first.
type TicketCreateInput struct {
	BrokerID    string
	Title       string
	Description string
}

// AttachmentInput defines attachment metadata accompanying a message.
type AttachmentInput struct {
	FileName   string
	FileType   string
	SizeBytes  int64
	StorageRef string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketStore,
		dispatcher: deps.Dispatcher,
	}
}

// Create opens a new ticket for an importer against a broker.
func (s *TicketService) Create(ctx context.Context, actor *domain.Identity, input TicketCreateInput) (*domain.Ticket, error) {
	if !authz.Allow(actor, authz.CreateTicket, nil) {
		return nil, apperrors.NewAuthorizationError()
	}

	fields := map[string]string{}
	if strings.TrimSpace(input.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(input.Description) == "" {
		fields["description"] = "description is required"
	}
	if strings.TrimSpace(input.BrokerID) == "" {
		fields["brokerId"] = "a broker must be selected"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError(fields)
	}

	now := time.Now()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		ImporterRef: actor.ID,
		BrokerRef:   input.BrokerID,
		Messages:    []domain.Message{},
		Attachments: map[string]domain.Attachment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    identityActor(actor),
		Payload: events.TicketCreatedPayload{
			ImporterRef: ticket.ImporterRef,
			BrokerRef:   ticket.BrokerRef,
			Title:       ticket.Title,
		},
	})
	return ticket, nil
}

// Get fetches a ticket ensuring the actor is a participant.
func (s *TicketService) Get(ctx context.Context, actor *domain.Identity, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.Allow(actor, authz.ViewTicket, ticket) {
		return nil, apperrors.NewAuthorizationError()
	}
	return ticket, nil
}

// ListForIdentity returns all tickets the identity participates in.
func (s *TicketService) ListForIdentity(ctx context.Context, actor *domain.Identity) ([]domain.Ticket, error) {
	if !actor.Authenticatable() {
		return nil, apperrors.NewAuthorizationError()
	}
	return s.tickets.ListByParticipant(ctx, actor.ID)
}

// ChangeStatus moves the ticket along an allowed edge. The transition
// is re-evaluated against the current state under the ticket lock, so
// of two concurrent calls only one wins and the other observes the
// post-transition state.
func (s *TicketService) ChangeStatus(ctx context.Context, actor *domain.Identity, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	var oldStatus domain.TicketStatus
	ticket, err := s.tickets.Mutate(ctx, ticketID, func(t *domain.Ticket) error {
		if !authz.Allow(actor, authz.ChangeStatus, t) {
			// The ticket's own broker hitting a terminal state is a
			// state failure, not a permission one.
			if actor.Authenticatable() && actor.Role == domain.RoleBroker &&
				actor.ID == t.BrokerRef && t.Status.Terminal() {
				return apperrors.NewInvalidTransition(string(t.Status), string(newStatus))
			}
			return apperrors.NewAuthorizationError()
		}
		if t.PendingEdit != nil {
			return apperrors.NewStateError("EDIT_PENDING", "an edit awaits the counter-party's decision")
		}
		if !domain.ValidTransition(t.Status, newStatus) {
			if t.Status.Terminal() {
				return apperrors.NewTerminalState(string(t.Status))
			}
			return apperrors.NewInvalidTransition(string(t.Status), string(newStatus))
		}
		oldStatus = t.Status
		t.Status = newStatus
		t.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    identityActor(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// AppendMessage adds a message to the thread. The sender reference
// snapshots the actor at send time, so later profile edits never
// retouch historical attribution.
func (s *TicketService) AppendMessage(ctx context.Context, actor *domain.Identity, ticketID, content string, attachments []AttachmentInput) (*domain.Message, error) {
	var appended domain.Message
	_, err := s.tickets.Mutate(ctx, ticketID, func(t *domain.Ticket) error {
		if !authz.Allow(actor, authz.SendMessage, t) {
			if t.Participant(actor.ID) && t.Status.Terminal() {
				return apperrors.NewTerminalState(string(t.Status))
			}
			return apperrors.NewAuthorizationError()
		}
		body := strings.TrimSpace(content)
		if body == "" {
			return apperrors.NewFieldError("content", "message content is required")
		}
		for _, att := range attachments {
			if att.FileName == "" || att.SizeBytes <= 0 {
				return apperrors.NewFieldError("attachments", "attachment needs a name and a positive size")
			}
		}

		now := time.Now()
		message := domain.Message{
			ID:      uuid.NewString(),
			Content: body,
			SentAt:  now,
			Sender: domain.SenderRef{
				IdentityID:  actor.ID,
				Role:        actor.Role,
				DisplayName: actor.DisplayName(),
			},
		}
		for _, att := range attachments {
			record := domain.Attachment{
				ID:         uuid.NewString(),
				FileName:   att.FileName,
				FileType:   att.FileType,
				FileSize:   att.SizeBytes,
				StorageRef: att.StorageRef,
				UploadedAt: now,
			}
			message.Attachments = append(message.Attachments, record)
			t.Attachments[record.ID] = record
		}
		t.Messages = append(t.Messages, message)
		t.UpdatedAt = now
		appended = message
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticketID,
		Actor:    identityActor(actor),
		Payload: events.TicketMessageAddedPayload{
			MessageID:       appended.ID,
			SenderID:        appended.Sender.IdentityID,
			SenderRole:      appended.Sender.Role,
			BodyPreview:     stringPreview(appended.Content, 120),
			AttachmentCount: len(appended.Attachments),
		},
	})
	return &appended, nil
}

// ToggleImportant flips the importance flag on a message. Either
// participant may toggle regardless of role; two toggles cancel out.
func (s *TicketService) ToggleImportant(ctx context.Context, actor *domain.Identity, ticketID, messageID string) (*domain.Message, error) {
	var toggled domain.Message
	_, err := s.tickets.Mutate(ctx, ticketID, func(t *domain.Ticket) error {
		if !actor.Authenticatable() || !t.Participant(actor.ID) {
			return apperrors.NewAuthorizationError()
		}
		idx := t.FindMessage(messageID)
		if idx < 0 {
			return apperrors.NewNotFound("message")
		}
		t.Messages[idx].Important = !t.Messages[idx].Important
		toggled = t.Messages[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventMessageFlagToggled,
		TicketID: ticketID,
		Actor:    identityActor(actor),
		Payload: events.MessageFlagToggledPayload{
			MessageID: toggled.ID,
			Important: toggled.Important,
		},
	})
	return &toggled, nil
}

// ProposeEdit stages a patch to the ticket fields. While it is pending,
// status changes are blocked until the counter-party confirms or
// rejects. Only one edit may be pending at a time.
func (s *TicketService) ProposeEdit(ctx context.Context, actor *domain.Identity, ticketID string, patch domain.TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.tickets.Mutate(ctx, ticketID, func(t *domain.Ticket) error {
		if !actor.Authenticatable() || !t.Participant(actor.ID) {
			return apperrors.NewAuthorizationError()
		}
		if t.Status.Terminal() {
			return apperrors.NewTerminalState(string(t.Status))
		}
		if t.PendingEdit != nil {
			return apperrors.NewStateError("EDIT_PENDING", "another edit is already awaiting approval")
		}
		if patch.Title == nil && patch.Description == nil {
			return apperrors.NewFieldError("patch", "nothing to change")
		}
		if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
			return apperrors.NewFieldError("title", "title is required")
		}
		if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
			return apperrors.NewFieldError("description", "description is required")
		}
		t.PendingEdit = &domain.EditProposal{
			ProposedBy: actor.ID,
			Patch:      patch,
			ProposedAt: time.Now(),
		}
		t.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEditProposed,
		TicketID: ticketID,
		Actor:    identityActor(actor),
	})
	return ticket, nil
}

// ResolveEdit confirms or rejects the pending edit. Only the
// counter-party of the proposer may decide. Confirming applies the
// patch atomically; rejecting discards it. Either way the flag clears.
func (s *TicketService) ResolveEdit(ctx context.Context, actor *domain.Identity, ticketID string, confirm bool) (*domain.Ticket, error) {
	ticket, err := s.tickets.Mutate(ctx, ticketID, func(t *domain.Ticket) error {
		if !actor.Authenticatable() || !t.Participant(actor.ID) {
			return apperrors.NewAuthorizationError()
		}
		if t.PendingEdit == nil {
			return apperrors.NewStateError("NO_PENDING_EDIT", "no edit awaits approval")
		}
		if t.PendingEdit.ProposedBy == actor.ID {
			return apperrors.NewAuthorizationError()
		}
		if confirm {
			if t.PendingEdit.Patch.Title != nil {
				t.Title = strings.TrimSpace(*t.PendingEdit.Patch.Title)
			}
			if t.PendingEdit.Patch.Description != nil {
				t.Description = strings.TrimSpace(*t.PendingEdit.Patch.Description)
			}
		}
		t.PendingEdit = nil
		t.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEditResolved,
		TicketID: ticketID,
		Actor:    identityActor(actor),
		Payload:  events.TicketEditResolvedPayload{Confirmed: confirm},
	})
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func identityActor(identity *domain.Identity) events.Actor {
	if identity == nil {
		return events.Actor{}
	}
	return events.Actor{IdentityID: identity.ID, Role: identity.Role}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
