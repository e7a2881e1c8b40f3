package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/provider"
	"github.com/comexdesk/broker-portal/internal/validate"
	apperrors "github.com/comexdesk/broker-portal/pkg/util"
)

// RegisterCandidate is the multi-step wizard input assembled before
// account creation.
type RegisterCandidate struct {
	Email      string
	Phone      string
	Role       domain.Role
	PersonType domain.PersonType

	// Individual fields.
	FullName string
	CPF      string

	// Organization fields.
	LegalName       string
	CNPJ            string
	ResponsibleName string
	ResponsibleCPF  string

	Address domain.Address

	Password        string
	ConfirmPassword string
}

// RegistrationService validates a candidate in three fixed stages and
// hands account creation off to the identity provider and profile
// store.
type RegistrationService struct {
	identities provider.IdentityProvider
	profiles   provider.ProfileStore
	postal     provider.PostalLookup
	logger     *zap.Logger
}

// RegistrationDependencies bundles collaborators.
type RegistrationDependencies struct {
	IdentityProvider provider.IdentityProvider
	ProfileStore     provider.ProfileStore
	PostalLookup     provider.PostalLookup
}

// NewRegistrationService builds the service.
func NewRegistrationService(deps RegistrationDependencies, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		identities: deps.IdentityProvider,
		profiles:   deps.ProfileStore,
		postal:     deps.PostalLookup,
		logger:     logger,
	}
}

// ValidateBasics is stage 1: email, phone, role, and the person-type
// specific identity fields. An empty map means the stage passed.
func (s *RegistrationService) ValidateBasics(c RegisterCandidate) map[string]string {
	fields := map[string]string{}
	if !validate.Email(c.Email) {
		fields["email"] = "a valid email address is required"
	}
	if !validate.Phone(c.Phone) {
		fields["phone"] = "phone must have 10 or 11 digits"
	}
	if c.Role != domain.RoleImporter && c.Role != domain.RoleBroker {
		fields["role"] = "role must be importer or broker"
	}

	switch c.PersonType {
	case domain.PersonTypeIndividual:
		if strings.TrimSpace(c.FullName) == "" {
			fields["fullName"] = "full name is required"
		}
		if !validate.CPF(c.CPF) {
			fields["cpf"] = "invalid CPF"
		}
	case domain.PersonTypeOrganization:
		if strings.TrimSpace(c.LegalName) == "" {
			fields["legalName"] = "organization name is required"
		}
		if !validate.CNPJ(c.CNPJ) {
			fields["cnpj"] = "invalid CNPJ"
		}
		if strings.TrimSpace(c.ResponsibleName) == "" {
			fields["responsibleName"] = "responsible party name is required"
		}
		if !validate.CPF(c.ResponsibleCPF) {
			fields["responsibleCpf"] = "invalid responsible party CPF"
		}
	default:
		fields["personType"] = "person type must be individual or organization"
	}
	return fields
}

// ValidateAddress is stage 2. Prefilled fields are re-validated like
// any other input; the postal hint is never authoritative.
func (s *RegistrationService) ValidateAddress(c RegisterCandidate) map[string]string {
	fields := map[string]string{}
	if !validate.CEP(c.Address.CEP) {
		fields["cep"] = "postal code must have 8 digits"
	}
	if strings.TrimSpace(c.Address.Street) == "" {
		fields["street"] = "street is required"
	}
	if strings.TrimSpace(c.Address.Number) == "" {
		fields["number"] = "number is required"
	}
	if strings.TrimSpace(c.Address.Neighborhood) == "" {
		fields["neighborhood"] = "neighborhood is required"
	}
	if strings.TrimSpace(c.Address.City) == "" {
		fields["city"] = "city is required"
	}
	if strings.TrimSpace(c.Address.State) == "" {
		fields["state"] = "state is required"
	}
	return fields
}

// ValidateCredentials is stage 3.
func (s *RegistrationService) ValidateCredentials(c RegisterCandidate) map[string]string {
	fields := map[string]string{}
	if len(c.Password) < 6 {
		fields["password"] = "password must have at least 6 characters"
	}
	if c.ConfirmPassword != c.Password {
		fields["confirmPassword"] = "passwords do not match"
	}
	return fields
}

// PrefillAddress asks the postal collaborator for a best-effort hint.
// A miss is not an error the caller needs to act on.
func (s *RegistrationService) PrefillAddress(ctx context.Context, cep string) (*provider.PostalHint, error) {
	if s.postal == nil {
		return nil, provider.ErrNotFound
	}
	return s.postal.Lookup(ctx, cep)
}

// Submit runs the three stages in order, stopping at the first failing
// one, then creates the auth principal and its profile record. If the
// profile step fails after the principal was created, the principal is
// invalidated as a best-effort compensating action so no orphan
// principal survives.
func (s *RegistrationService) Submit(ctx context.Context, c RegisterCandidate) (*domain.Identity, error) {
	for _, stage := range []func(RegisterCandidate) map[string]string{
		s.ValidateBasics,
		s.ValidateAddress,
		s.ValidateCredentials,
	} {
		if fields := stage(c); len(fields) > 0 {
			return nil, apperrors.NewValidationError(fields)
		}
	}

	principalID, err := s.identities.SignUp(ctx, strings.TrimSpace(c.Email), c.Password)
	if err != nil {
		return nil, err
	}

	record := &domain.ProfileRecord{
		Role:            c.Role,
		PersonType:      c.PersonType,
		FullName:        strings.TrimSpace(c.FullName),
		CPF:             validate.Digits(c.CPF),
		LegalName:       strings.TrimSpace(c.LegalName),
		CNPJ:            validate.Digits(c.CNPJ),
		ResponsibleName: strings.TrimSpace(c.ResponsibleName),
		ResponsibleCPF:  validate.Digits(c.ResponsibleCPF),
		Phone:           validate.Digits(c.Phone),
		Address:         c.Address,
	}
	if err := s.profiles.Upsert(ctx, principalID, record); err != nil {
		if rollbackErr := s.identities.DeletePrincipal(ctx, principalID); rollbackErr != nil {
			s.logger.Error("principal rollback failed after profile error",
				zap.String("principal_id", principalID), zap.Error(rollbackErr))
		}
		return nil, err
	}

	s.logger.Info("account registered",
		zap.String("principal_id", principalID), zap.String("role", string(c.Role)))
	return domain.NewIdentity(principalID, strings.TrimSpace(c.Email), record), nil
}
