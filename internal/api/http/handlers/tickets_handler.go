package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/comexdesk/broker-portal/internal/api/dto"
	"github.com/comexdesk/broker-portal/internal/auth"
	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/provider"
	"github.com/comexdesk/broker-portal/internal/service"
)

// TicketsHandler exposes the ticket workflow endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	profiles provider.ProfileStore
	objects  provider.ObjectStore
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, profiles provider.ProfileStore, objects provider.ObjectStore) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, profiles: profiles, objects: objects}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	var req dto.TicketCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	// The counter-party must exist and actually be a broker.
	if req.BrokerID != "" {
		record, err := h.profiles.Get(c.UserContext(), req.BrokerID)
		if err != nil || record.Deleted || record.Role != domain.RoleBroker {
			return fiber.NewError(http.StatusBadRequest, "unknown broker")
		}
	}

	ticket, err := h.tickets.Create(c.UserContext(), identity, service.TicketCreateInput{
		BrokerID:    req.BrokerID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	tickets, err := h.tickets.ListForIdentity(c.UserContext(), identity)
	if err != nil {
		return err
	}
	out := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, dto.TicketFromDomain(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	ticket, err := h.tickets.Get(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// ChangeStatus handles PATCH /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	ticket, err := h.tickets.ChangeStatus(c.UserContext(), identity, c.Params("id"), domain.TicketStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// AddMessage handles POST /tickets/:id/messages. Attachment bytes go to
// the object store first; the workflow receives metadata only.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	var req dto.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticketID := c.Params("id")
	attachments := make([]service.AttachmentInput, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		key := fmt.Sprintf("tickets/%s/%s-%s", ticketID, uuid.NewString(), att.FileName)
		storageRef, err := h.objects.Put(c.UserContext(), key, att.Content)
		if err != nil {
			return err
		}
		attachments = append(attachments, service.AttachmentInput{
			FileName:   att.FileName,
			FileType:   att.FileType,
			SizeBytes:  int64(len(att.Content)),
			StorageRef: storageRef,
		})
	}

	message, err := h.tickets.AppendMessage(c.UserContext(), identity, ticketID, req.Content, attachments)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.MessageFromDomain(message)})
}

// ToggleImportant handles POST /tickets/:id/messages/:messageId/important.
func (h *TicketsHandler) ToggleImportant(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	message, err := h.tickets.ToggleImportant(c.UserContext(), identity, c.Params("id"), c.Params("messageId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageFromDomain(message)})
}

// ProposeEdit handles POST /tickets/:id/edits.
func (h *TicketsHandler) ProposeEdit(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	var req dto.EditProposalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	ticket, err := h.tickets.ProposeEdit(c.UserContext(), identity, c.Params("id"), domain.TicketPatch{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// ResolveEdit handles POST /tickets/:id/edits/decision.
func (h *TicketsHandler) ResolveEdit(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	var req dto.EditDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	ticket, err := h.tickets.ResolveEdit(c.UserContext(), identity, c.Params("id"), req.Confirm)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}
