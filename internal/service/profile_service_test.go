package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/events"
	"github.com/comexdesk/broker-portal/internal/provider/memory"
	apperrors "github.com/comexdesk/broker-portal/pkg/util"
)

func seedProfile(t *testing.T, profiles *memory.ProfileStore, principalID string) *domain.Identity {
	t.Helper()
	record := &domain.ProfileRecord{
		Role:       domain.RoleImporter,
		PersonType: domain.PersonTypeIndividual,
		FullName:   "Ana Souza",
		CPF:        "11144477735",
		Phone:      "11987654321",
		Address: domain.Address{
			CEP:          "01310100",
			Street:       "Avenida Paulista",
			Number:       "1000",
			Neighborhood: "Bela Vista",
			City:         "Sao Paulo",
			State:        "SP",
		},
	}
	require.NoError(t, profiles.Upsert(context.Background(), principalID, record))
	return domain.NewIdentity(principalID, "ana@example.com", record)
}

func validProfileUpdate() ProfileUpdate {
	return ProfileUpdate{
		FullName: "Ana Souza Lima",
		Phone:    "11912345678",
		Address: domain.Address{
			CEP:          "04538133",
			Street:       "Avenida Faria Lima",
			Number:       "3477",
			Neighborhood: "Itaim Bibi",
			City:         "Sao Paulo",
			State:        "SP",
		},
	}
}

func TestProfileUpdate(t *testing.T) {
	profiles := memory.NewProfileStore()
	actor := seedProfile(t, profiles, "principal-1")
	svc := NewProfileService(profiles, nil, zap.NewNop())

	updated, err := svc.Update(context.Background(), actor, validProfileUpdate())
	require.NoError(t, err)
	require.Equal(t, "Ana Souza Lima", updated.DisplayName())
	require.Equal(t, "11912345678", updated.Phone)
	require.Equal(t, "04538133", updated.Address.CEP)

	// Role and person type survive any edit.
	require.Equal(t, domain.RoleImporter, updated.Role)
	require.Equal(t, domain.PersonTypeIndividual, updated.Person.PersonType())

	record, err := profiles.Get(context.Background(), "principal-1")
	require.NoError(t, err)
	require.Equal(t, "Ana Souza Lima", record.FullName)
	require.Equal(t, "11144477735", record.CPF, "document number is immutable")
}

func TestProfileUpdate_Validation(t *testing.T) {
	profiles := memory.NewProfileStore()
	actor := seedProfile(t, profiles, "principal-1")
	svc := NewProfileService(profiles, nil, zap.NewNop())

	update := validProfileUpdate()
	update.Phone = "123"
	update.FullName = " "
	_, err := svc.Update(context.Background(), actor, update)
	require.True(t, apperrors.IsValidation(err))

	fields := apperrors.FieldErrors(err)
	require.Contains(t, fields, "phone")
	require.Contains(t, fields, "fullName")

	record, getErr := profiles.Get(context.Background(), "principal-1")
	require.NoError(t, getErr)
	require.Equal(t, "Ana Souza", record.FullName, "failed update must not write")
}

func TestProfileUpdate_DeletedActorDenied(t *testing.T) {
	profiles := memory.NewProfileStore()
	actor := seedProfile(t, profiles, "principal-1")
	actor.Deleted = true
	svc := NewProfileService(profiles, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), actor, validProfileUpdate())
	require.True(t, apperrors.IsAuthorization(err))
}

func TestProfileDelete(t *testing.T) {
	profiles := memory.NewProfileStore()
	actor := seedProfile(t, profiles, "principal-1")
	dispatcher := events.NewInMemoryDispatcher()

	var published []events.Event
	dispatcher.Subscribe(events.EventAccountDeleted, func(_ context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	})

	svc := NewProfileService(profiles, dispatcher, zap.NewNop())
	require.NoError(t, svc.Delete(context.Background(), actor))

	record, err := profiles.Get(context.Background(), "principal-1")
	require.NoError(t, err)
	require.True(t, record.Deleted, "record survives for historical attribution")

	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.AccountDeletedPayload)
	require.True(t, ok)
	require.Equal(t, "principal-1", payload.PrincipalID)
}
