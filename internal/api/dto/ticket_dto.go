package dto

import (
	"time"

	"github.com/comexdesk/broker-portal/internal/domain"
)

// TicketCreateRequest opens a new ticket against a broker.
type TicketCreateRequest struct {
	BrokerID    string `json:"brokerId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// StatusChangeRequest moves a ticket along the lifecycle.
type StatusChangeRequest struct {
	Status string `json:"status"`
}

// MessageRequest appends a thread entry.
type MessageRequest struct {
	Content     string              `json:"content"`
	Attachments []AttachmentPayload `json:"attachments,omitempty"`
}

// AttachmentPayload carries attachment metadata plus the raw content.
// Content is stored in the object store; the workflow only ever sees
// the resulting storage key.
type AttachmentPayload struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Content  []byte `json:"content"`
}

// EditProposalRequest stages a patch to the mutable ticket fields.
type EditProposalRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// EditDecisionRequest confirms or rejects the pending edit.
type EditDecisionRequest struct {
	Confirm bool `json:"confirm"`
}

// AttachmentResponse mirrors domain.Attachment.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	StorageRef string    `json:"storageRef"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// MessageResponse mirrors domain.Message.
type MessageResponse struct {
	ID          string               `json:"id"`
	Content     string               `json:"content"`
	SentAt      time.Time            `json:"sentAt"`
	SenderID    string               `json:"senderId"`
	SenderRole  string               `json:"senderRole"`
	SenderName  string               `json:"senderName"`
	Important   bool                 `json:"important"`
	Attachments []AttachmentResponse `json:"attachments,omitempty"`
}

// TicketResponse mirrors domain.Ticket.
type TicketResponse struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Status          string            `json:"status"`
	ImporterRef     string            `json:"importerRef"`
	BrokerRef       string            `json:"brokerRef"`
	PendingApproval bool              `json:"pendingEditApproval"`
	Messages        []MessageResponse `json:"messages"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// TicketFromDomain maps a ticket snapshot onto the wire form.
func TicketFromDomain(ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:              ticket.ID,
		Title:           ticket.Title,
		Description:     ticket.Description,
		Status:          string(ticket.Status),
		ImporterRef:     ticket.ImporterRef,
		BrokerRef:       ticket.BrokerRef,
		PendingApproval: ticket.PendingEdit != nil,
		Messages:        make([]MessageResponse, 0, len(ticket.Messages)),
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
	for i := range ticket.Messages {
		resp.Messages = append(resp.Messages, MessageFromDomain(&ticket.Messages[i]))
	}
	return resp
}

// MessageFromDomain maps a message onto the wire form.
func MessageFromDomain(message *domain.Message) MessageResponse {
	resp := MessageResponse{
		ID:         message.ID,
		Content:    message.Content,
		SentAt:     message.SentAt,
		SenderID:   message.Sender.IdentityID,
		SenderRole: string(message.Sender.Role),
		SenderName: message.Sender.DisplayName,
		Important:  message.Important,
	}
	for _, att := range message.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			ID:         att.ID,
			FileName:   att.FileName,
			FileType:   att.FileType,
			FileSize:   att.FileSize,
			StorageRef: att.StorageRef,
			UploadedAt: att.UploadedAt,
		})
	}
	return resp
}
