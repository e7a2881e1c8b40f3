package domain

import "time"

// SenderRef snapshots the author at send time. Later profile edits never
// retroactively change historical attribution.
type SenderRef struct {
	IdentityID  string
	Role        Role
	DisplayName string
}

// Message is one append-only entry in a ticket thread. Important is the
// only field mutable after creation.
type Message struct {
	ID          string
	Content     string
	SentAt      time.Time
	Sender      SenderRef
	Important   bool
	Attachments []Attachment
}

func (m Message) clone() Message {
	out := m
	out.Attachments = make([]Attachment, len(m.Attachments))
	copy(out.Attachments, m.Attachments)
	return out
}
