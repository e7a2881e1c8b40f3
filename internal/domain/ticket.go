package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// Terminal reports whether no further mutation is accepted.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusCompleted || s == TicketStatusCancelled
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusCancelled},
	TicketStatusInProgress: {TicketStatusCompleted, TicketStatusCancelled},
	TicketStatusCompleted:  {},
	TicketStatusCancelled:  {},
}

// ValidTransition reports whether current→next is an allowed edge.
func ValidTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// TicketPatch is a proposed change to the mutable ticket fields. Nil
// fields are left untouched when the patch is confirmed.
type TicketPatch struct {
	Title       *string
	Description *string
}

// EditProposal is one party's pending patch awaiting the counter-party's
// confirmation. At most one proposal exists per ticket at a time.
type EditProposal struct {
	ProposedBy string
	Patch      TicketPatch
	ProposedAt time.Time
}

// Ticket is the aggregate for support requests between one importer and
// one broker. Both references are set at creation and never change.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	ImporterRef string
	BrokerRef   string
	PendingEdit *EditProposal
	Messages    []Message
	Attachments map[string]Attachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Participant reports whether the given identity id is one of the two
// ticket principals.
func (t *Ticket) Participant(identityID string) bool {
	if t == nil || identityID == "" {
		return false
	}
	return identityID == t.ImporterRef || identityID == t.BrokerRef
}

// FindMessage returns the index of the message with the given id, or -1.
func (t *Ticket) FindMessage(messageID string) int {
	for i := range t.Messages {
		if t.Messages[i].ID == messageID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can hand out snapshots that stay
// consistent while the original keeps mutating under its lock.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	clone := *t
	if t.PendingEdit != nil {
		pending := *t.PendingEdit
		if t.PendingEdit.Patch.Title != nil {
			title := *t.PendingEdit.Patch.Title
			pending.Patch.Title = &title
		}
		if t.PendingEdit.Patch.Description != nil {
			desc := *t.PendingEdit.Patch.Description
			pending.Patch.Description = &desc
		}
		clone.PendingEdit = &pending
	}
	clone.Messages = make([]Message, len(t.Messages))
	for i := range t.Messages {
		clone.Messages[i] = t.Messages[i].clone()
	}
	clone.Attachments = make(map[string]Attachment, len(t.Attachments))
	for id, att := range t.Attachments {
		clone.Attachments[id] = att
	}
	return &clone
}
