package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/comexdesk/broker-portal/internal/auth"
	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/provider"
	"github.com/comexdesk/broker-portal/internal/provider/local"
	"github.com/comexdesk/broker-portal/internal/provider/memory"
	"github.com/comexdesk/broker-portal/internal/session"
	apperrors "github.com/comexdesk/broker-portal/pkg/util"
)

type fakeIdentityProvider struct {
	signedUp  []string
	deleted   []string
	signUpErr error
	events    chan provider.AuthEvent
}

func (f *fakeIdentityProvider) SignUp(_ context.Context, email, _ string) (string, error) {
	if f.signUpErr != nil {
		return "", f.signUpErr
	}
	f.signedUp = append(f.signedUp, email)
	return "principal-1", nil
}

func (f *fakeIdentityProvider) SignInWithPassword(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeIdentityProvider) SignOut(context.Context, string) error { return nil }

func (f *fakeIdentityProvider) DeletePrincipal(_ context.Context, principalID string) error {
	f.deleted = append(f.deleted, principalID)
	return nil
}

func (f *fakeIdentityProvider) Events() <-chan provider.AuthEvent { return f.events }

type failingProfileStore struct {
	provider.ProfileStore
	upsertErr error
}

func (f *failingProfileStore) Upsert(context.Context, string, *domain.ProfileRecord) error {
	return f.upsertErr
}

func validCandidate() RegisterCandidate {
	return RegisterCandidate{
		Email:      "ana@example.com",
		Phone:      "11987654321",
		Role:       domain.RoleImporter,
		PersonType: domain.PersonTypeIndividual,
		FullName:   "Ana Souza",
		CPF:        "111.444.777-35",
		Address: domain.Address{
			CEP:          "01310-100",
			Street:       "Avenida Paulista",
			Number:       "1000",
			Neighborhood: "Bela Vista",
			City:         "Sao Paulo",
			State:        "SP",
		},
		Password:        "abcdef",
		ConfirmPassword: "abcdef",
	}
}

func newTestRegistrationService(identities provider.IdentityProvider, profiles provider.ProfileStore) *RegistrationService {
	return NewRegistrationService(RegistrationDependencies{
		IdentityProvider: identities,
		ProfileStore:     profiles,
	}, zap.NewNop())
}

func TestValidateBasics(t *testing.T) {
	svc := newTestRegistrationService(&fakeIdentityProvider{}, memory.NewProfileStore())

	t.Run("valid individual passes", func(t *testing.T) {
		require.Empty(t, svc.ValidateBasics(validCandidate()))
	})

	t.Run("bad email and cpf", func(t *testing.T) {
		c := validCandidate()
		c.Email = "not-an-email"
		c.CPF = "111.444.777-00"
		fields := svc.ValidateBasics(c)
		require.Contains(t, fields, "email")
		require.Contains(t, fields, "cpf")
		require.NotContains(t, fields, "phone")
	})

	t.Run("organization requires responsible party", func(t *testing.T) {
		c := validCandidate()
		c.PersonType = domain.PersonTypeOrganization
		c.LegalName = "Comex Importadora Ltda"
		c.CNPJ = "11.222.333/0001-81"
		fields := svc.ValidateBasics(c)
		require.Contains(t, fields, "responsibleName")
		require.Contains(t, fields, "responsibleCpf")
		require.NotContains(t, fields, "cnpj")
	})

	t.Run("unknown person type", func(t *testing.T) {
		c := validCandidate()
		c.PersonType = "COOPERATIVE"
		require.Contains(t, svc.ValidateBasics(c), "personType")
	})
}

func TestValidateAddress(t *testing.T) {
	svc := newTestRegistrationService(&fakeIdentityProvider{}, memory.NewProfileStore())

	require.Empty(t, svc.ValidateAddress(validCandidate()))

	c := validCandidate()
	c.Address.CEP = "0131"
	c.Address.City = "  "
	fields := svc.ValidateAddress(c)
	require.Contains(t, fields, "cep")
	require.Contains(t, fields, "city")
	require.NotContains(t, fields, "street")
}

func TestValidateCredentials(t *testing.T) {
	svc := newTestRegistrationService(&fakeIdentityProvider{}, memory.NewProfileStore())

	require.Empty(t, svc.ValidateCredentials(validCandidate()))

	c := validCandidate()
	c.Password = "abc"
	c.ConfirmPassword = "abcd"
	fields := svc.ValidateCredentials(c)
	require.Contains(t, fields, "password")
	require.Contains(t, fields, "confirmPassword")
}

func TestSubmit(t *testing.T) {
	identities := &fakeIdentityProvider{}
	profiles := memory.NewProfileStore()
	svc := newTestRegistrationService(identities, profiles)

	identity, err := svc.Submit(context.Background(), validCandidate())
	require.NoError(t, err)
	require.Equal(t, "principal-1", identity.ID)
	require.Equal(t, domain.RoleImporter, identity.Role)
	require.Equal(t, "Ana Souza", identity.DisplayName())
	require.Equal(t, "11144477735", identity.Person.DocumentNumber())
	require.False(t, identity.Deleted)

	record, err := profiles.Get(context.Background(), "principal-1")
	require.NoError(t, err)
	require.Equal(t, "11987654321", record.Phone)
}

func TestSubmit_StopsAtFirstFailingStage(t *testing.T) {
	identities := &fakeIdentityProvider{}
	svc := newTestRegistrationService(identities, memory.NewProfileStore())

	// Both the basics stage and the credentials stage would fail; only
	// the basics fields are reported.
	c := validCandidate()
	c.CPF = "123"
	c.Password = "x"
	c.ConfirmPassword = "x"

	_, err := svc.Submit(context.Background(), c)
	require.True(t, apperrors.IsValidation(err))

	fields := apperrors.FieldErrors(err)
	require.Contains(t, fields, "cpf")
	require.NotContains(t, fields, "password")
	require.Empty(t, identities.signedUp)
}

func TestSubmit_RollsBackPrincipalOnProfileFailure(t *testing.T) {
	identities := &fakeIdentityProvider{}
	profiles := &failingProfileStore{upsertErr: errors.New("connection refused")}
	svc := newTestRegistrationService(identities, profiles)

	_, err := svc.Submit(context.Background(), validCandidate())
	require.Error(t, err)
	require.Equal(t, []string{"ana@example.com"}, identities.signedUp)
	require.Equal(t, []string{"principal-1"}, identities.deleted)
}

func TestSubmitThenSignInRoundTrip(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", 5)
	identities := local.New(tokens, bcrypt.MinCost, zap.NewNop())
	profiles := memory.NewProfileStore()
	svc := newTestRegistrationService(identities, profiles)

	registered, err := svc.Submit(context.Background(), validCandidate())
	require.NoError(t, err)

	resolver := session.NewResolver(identities, profiles, tokens, zap.NewNop(), time.Millisecond)
	_, err = identities.SignInWithPassword(context.Background(), "ana@example.com", "abcdef")
	require.NoError(t, err)

	select {
	case event := <-identities.Events():
		resolver.OnAuthEvent(context.Background(), event)
	case <-time.After(time.Second):
		t.Fatal("no sign-in event emitted")
	}

	require.Eventually(t, func() bool { return resolver.Current() != nil }, time.Second, time.Millisecond)
	resolved := resolver.Current()
	require.Equal(t, registered.ID, resolved.ID)
	require.Equal(t, registered.Email, resolved.Email)
	require.Equal(t, registered.Role, resolved.Role)
	require.Equal(t, registered.Person, resolved.Person)
	require.Equal(t, registered.Phone, resolved.Phone)
	require.Equal(t, registered.Address, resolved.Address)
}

func TestPrefillAddress(t *testing.T) {
	svc := newTestRegistrationService(&fakeIdentityProvider{}, memory.NewProfileStore())

	// No postal collaborator wired: a miss, not a failure mode the
	// wizard surfaces.
	hint, err := svc.PrefillAddress(context.Background(), "01310100")
	require.Nil(t, hint)
	require.ErrorIs(t, err, provider.ErrNotFound)
}
