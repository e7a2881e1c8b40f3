package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/comexdesk/broker-portal/internal/api/dto"
	"github.com/comexdesk/broker-portal/internal/auth"
	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/provider"
	"github.com/comexdesk/broker-portal/internal/provider/local"
	"github.com/comexdesk/broker-portal/internal/service"
)

// AccountsHandler exposes registration, session, and profile endpoints.
type AccountsHandler struct {
	registration *service.RegistrationService
	profile      *service.ProfileService
	identities   provider.IdentityProvider
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(registration *service.RegistrationService, profile *service.ProfileService, identities provider.IdentityProvider) *AccountsHandler {
	return &AccountsHandler{registration: registration, profile: profile, identities: identities}
}

// Register handles POST /auth/register.
func (h *AccountsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	candidate := service.RegisterCandidate{
		Email:           req.Email,
		Phone:           req.Phone,
		Role:            domain.Role(req.Role),
		PersonType:      domain.PersonType(req.PersonType),
		FullName:        req.FullName,
		CPF:             req.CPF,
		LegalName:       req.LegalName,
		CNPJ:            req.CNPJ,
		ResponsibleName: req.ResponsibleName,
		ResponsibleCPF:  req.ResponsibleCPF,
		Address:         req.Address.ToAddress(),
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	}

	identity, err := h.registration.Submit(c.UserContext(), candidate)
	if err != nil {
		if errors.Is(err, local.ErrEmailTaken) {
			return fiber.NewError(http.StatusConflict, "email already registered")
		}
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.IdentityFromDomain(identity),
	})
}

// Login handles POST /auth/login.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	token, err := h.identities.SignInWithPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{Token: token}})
}

// Logout handles POST /auth/logout.
func (h *AccountsHandler) Logout(c *fiber.Ctx) error {
	token := c.Get("Authorization")
	_ = h.identities.SignOut(c.UserContext(), token)
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /profile.
func (h *AccountsHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return c.JSON(fiber.Map{"data": dto.IdentityFromDomain(identity)})
}

// UpdateProfile handles PUT /profile.
func (h *AccountsHandler) UpdateProfile(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	updated, err := h.profile.Update(c.UserContext(), identity, service.ProfileUpdate{
		FullName:        req.FullName,
		LegalName:       req.LegalName,
		ResponsibleName: req.ResponsibleName,
		ResponsibleCPF:  req.ResponsibleCPF,
		Phone:           req.Phone,
		Address:         req.Address.ToAddress(),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IdentityFromDomain(updated)})
}

// DeleteAccount handles DELETE /profile.
func (h *AccountsHandler) DeleteAccount(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	if err := h.profile.Delete(c.UserContext(), identity); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// PostalLookup handles GET /address/:cep.
func (h *AccountsHandler) PostalLookup(c *fiber.Ctx) error {
	hint, err := h.registration.PrefillAddress(c.UserContext(), c.Params("cep"))
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "postal code not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PostalHintResponse{
		Street:       hint.Street,
		Neighborhood: hint.Neighborhood,
		City:         hint.City,
		State:        hint.State,
		Complement:   hint.Complement,
	}})
}
