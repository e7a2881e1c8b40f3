package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/events"
	"github.com/comexdesk/broker-portal/internal/provider"
	"github.com/comexdesk/broker-portal/internal/validate"
	apperrors "github.com/comexdesk/broker-portal/pkg/util"
)

// ProfileUpdate carries the fields a principal may edit after
// registration. Role and person type are fixed at creation and cannot
// appear here.
type ProfileUpdate struct {
	FullName        string
	LegalName       string
	ResponsibleName string
	ResponsibleCPF  string
	Phone           string
	Address         domain.Address
}

// ProfileService handles owner-only profile edits and the soft-delete
// account flow.
type ProfileService struct {
	profiles   provider.ProfileStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewProfileService builds the service.
func NewProfileService(profiles provider.ProfileStore, dispatcher events.Dispatcher, logger *zap.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, dispatcher: dispatcher, logger: logger}
}

// Update applies an edit to the caller's own profile after
// re-validation. Identity records are single-writer: only the owning
// principal ever reaches this path.
func (s *ProfileService) Update(ctx context.Context, actor *domain.Identity, update ProfileUpdate) (*domain.Identity, error) {
	if !actor.Authenticatable() {
		return nil, apperrors.NewAuthorizationError()
	}

	record, err := s.profiles.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if record.Deleted {
		return nil, apperrors.NewStateError("ACCOUNT_DELETED", "account has been deleted")
	}

	fields := map[string]string{}
	if !validate.Phone(update.Phone) {
		fields["phone"] = "phone must have 10 or 11 digits"
	}
	switch record.PersonType {
	case domain.PersonTypeIndividual:
		if strings.TrimSpace(update.FullName) == "" {
			fields["fullName"] = "full name is required"
		}
	case domain.PersonTypeOrganization:
		if strings.TrimSpace(update.LegalName) == "" {
			fields["legalName"] = "organization name is required"
		}
		if strings.TrimSpace(update.ResponsibleName) == "" {
			fields["responsibleName"] = "responsible party name is required"
		}
		if !validate.CPF(update.ResponsibleCPF) {
			fields["responsibleCpf"] = "invalid responsible party CPF"
		}
	}
	if !validate.CEP(update.Address.CEP) {
		fields["cep"] = "postal code must have 8 digits"
	}
	if strings.TrimSpace(update.Address.Street) == "" {
		fields["street"] = "street is required"
	}
	if strings.TrimSpace(update.Address.Number) == "" {
		fields["number"] = "number is required"
	}
	if strings.TrimSpace(update.Address.Neighborhood) == "" {
		fields["neighborhood"] = "neighborhood is required"
	}
	if strings.TrimSpace(update.Address.City) == "" {
		fields["city"] = "city is required"
	}
	if strings.TrimSpace(update.Address.State) == "" {
		fields["state"] = "state is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError(fields)
	}

	record.Phone = validate.Digits(update.Phone)
	record.Address = update.Address
	switch record.PersonType {
	case domain.PersonTypeIndividual:
		record.FullName = strings.TrimSpace(update.FullName)
	case domain.PersonTypeOrganization:
		record.LegalName = strings.TrimSpace(update.LegalName)
		record.ResponsibleName = strings.TrimSpace(update.ResponsibleName)
		record.ResponsibleCPF = validate.Digits(update.ResponsibleCPF)
	}

	if err := s.profiles.Upsert(ctx, actor.ID, record); err != nil {
		return nil, err
	}
	return domain.NewIdentity(actor.ID, actor.Email, record), nil
}

// Delete soft-deletes the caller's own account. The record stays so
// historical tickets remain attributable; the published event triggers
// the resolver's forced sign-out.
func (s *ProfileService) Delete(ctx context.Context, actor *domain.Identity) error {
	if !actor.Authenticatable() {
		return apperrors.NewAuthorizationError()
	}
	if err := s.profiles.SetDeleted(ctx, actor.ID); err != nil {
		return err
	}
	s.logger.Info("account soft-deleted", zap.String("principal_id", actor.ID))

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAccountDeleted,
			Actor:     identityActor(actor),
			Timestamp: time.Now(),
			Payload:   events.AccountDeletedPayload{PrincipalID: actor.ID},
		})
	}
	return nil
}
