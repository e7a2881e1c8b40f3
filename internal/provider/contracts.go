// Package provider declares the contracts of the external collaborators
// the portal depends on: the identity provider, the profile store, the
// object store, and the postal lookup service. Implementations live in
// subpackages; the core only sees these interfaces.
package provider

import (
	"context"
	"errors"

	"github.com/comexdesk/broker-portal/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// AuthEventKind enumerates the auth-provider event stream.
type AuthEventKind string

const (
	AuthSignedIn       AuthEventKind = "SIGNED_IN"
	AuthSignedOut      AuthEventKind = "SIGNED_OUT"
	AuthTokenRefreshed AuthEventKind = "TOKEN_REFRESHED"
)

// AuthEvent is one entry in the identity provider's session stream.
// SessionToken is set for SIGNED_IN and TOKEN_REFRESHED.
type AuthEvent struct {
	Kind         AuthEventKind
	SessionToken string
}

// IdentityProvider issues auth principals and session events.
type IdentityProvider interface {
	// SignUp creates an auth principal and returns its stable id.
	SignUp(ctx context.Context, email, password string) (string, error)
	// SignInWithPassword authenticates and returns a raw session token.
	SignInWithPassword(ctx context.Context, email, password string) (string, error)
	// SignOut invalidates the session. Used both for user-initiated
	// logout and the forced sign-out of soft-deleted identities.
	SignOut(ctx context.Context, sessionToken string) error
	// DeletePrincipal is the best-effort compensating action used when
	// profile creation fails after the principal was created.
	DeletePrincipal(ctx context.Context, principalID string) error
	// Events exposes the session event stream consumed by the resolver.
	Events() <-chan AuthEvent
}

// ProfileStore is the durable per-principal record store.
type ProfileStore interface {
	Get(ctx context.Context, principalID string) (*domain.ProfileRecord, error)
	Upsert(ctx context.Context, principalID string, record *domain.ProfileRecord) error
	SetDeleted(ctx context.Context, principalID string) error
}

// ObjectStore holds attachment payloads. The workflow only ever handles
// the returned keys, never the bytes.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// PostalHint is a best-effort address prefill from a postal code.
type PostalHint struct {
	Street       string
	Neighborhood string
	City         string
	State        string
	Complement   string
}

// PostalLookup resolves a postal code to an address hint. Results are
// never authoritative; the user may edit every field afterwards.
type PostalLookup interface {
	Lookup(ctx context.Context, postalCode string) (*PostalHint, error)
}
