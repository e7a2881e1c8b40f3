// Package session converts the identity provider's asynchronous auth
// events into one consistent, atomically published Identity value.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/comexdesk/broker-portal/internal/auth"
	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/provider"
)

const defaultRetryDelay = 250 * time.Millisecond

// Resolver owns the current session state for one principal stream.
// Events are sequence-numbered on arrival; a resolution still in flight
// for an older event can never overwrite the result of a newer one.
type Resolver struct {
	identities provider.IdentityProvider
	profiles   provider.ProfileStore
	tokens     *auth.TokenManager
	logger     *zap.Logger
	retryDelay time.Duration

	current atomic.Pointer[domain.Identity]

	mu             sync.Mutex
	seq            uint64
	applied        uint64
	inflightCancel context.CancelFunc
}

// NewResolver builds a resolver. retryDelay <= 0 selects the default.
func NewResolver(identities provider.IdentityProvider, profiles provider.ProfileStore, tokens *auth.TokenManager, logger *zap.Logger, retryDelay time.Duration) *Resolver {
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &Resolver{
		identities: identities,
		profiles:   profiles,
		tokens:     tokens,
		logger:     logger,
		retryDelay: retryDelay,
	}
}

// Run consumes the provider's event stream until ctx is cancelled or
// the stream closes.
func (r *Resolver) Run(ctx context.Context) {
	events := r.identities.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			r.OnAuthEvent(ctx, event)
		}
	}
}

// Current returns the latest settled identity, or nil for
// Unauthenticated. Never blocks.
func (r *Resolver) Current() *domain.Identity {
	return r.current.Load()
}

// OnAuthEvent processes one auth event in arrival order. Sign-outs
// settle synchronously; sign-ins and refreshes resolve the profile
// asynchronously and apply monotonically by sequence number.
func (r *Resolver) OnAuthEvent(ctx context.Context, event provider.AuthEvent) {
	r.mu.Lock()
	r.seq++
	seq := r.seq

	switch event.Kind {
	case provider.AuthSignedOut:
		r.cancelInflightLocked()
		r.applied = seq
		r.current.Store(nil)
		r.mu.Unlock()

	case provider.AuthSignedIn, provider.AuthTokenRefreshed:
		claims, err := r.tokens.ParseToken(event.SessionToken)
		if err != nil {
			// A token the provider itself cannot vouch for is not a
			// transient condition; settle Unauthenticated.
			r.cancelInflightLocked()
			r.applied = seq
			r.current.Store(nil)
			r.mu.Unlock()
			r.logger.Warn("unparseable session token", zap.Error(err))
			return
		}
		// A newer event supersedes whatever fetch is still running.
		r.cancelInflightLocked()
		fetchCtx, cancel := context.WithCancel(ctx)
		r.inflightCancel = cancel
		r.mu.Unlock()

		go r.resolve(fetchCtx, seq, claims, event.SessionToken)

	default:
		r.mu.Unlock()
		r.logger.Warn("unknown auth event", zap.String("kind", string(event.Kind)))
	}
}

// OnProfileDeleted is the compensating step of the soft-delete
// protocol: if the deleted principal is the current session, cancel any
// in-flight resolution, force a provider sign-out, and settle
// Unauthenticated.
func (r *Resolver) OnProfileDeleted(ctx context.Context, principalID string) {
	r.mu.Lock()
	current := r.current.Load()
	if current == nil || current.ID != principalID {
		r.mu.Unlock()
		return
	}
	r.cancelInflightLocked()
	r.seq++
	r.applied = r.seq
	r.current.Store(nil)
	r.mu.Unlock()

	if err := r.identities.SignOut(ctx, ""); err != nil {
		r.logger.Warn("forced sign-out failed", zap.String("principal_id", principalID), zap.Error(err))
	}
}

func (r *Resolver) resolve(ctx context.Context, seq uint64, claims *auth.Claims, sessionToken string) {
	record, err := r.fetchWithRetry(ctx, claims.PrincipalID)
	if err != nil {
		if ctx.Err() != nil {
			// Superseded by a newer event; the late response is dropped.
			return
		}
		if errors.Is(err, provider.ErrNotFound) {
			// A principal with no profile cannot stay signed in.
			r.forceSignOut(sessionToken)
			r.apply(seq, nil)
			return
		}
		// Transient failure after the retry: keep the previous state,
		// but still advance the sequence so an even older in-flight
		// resolution cannot apply later.
		r.logger.Warn("profile fetch failed, keeping previous session state",
			zap.String("principal_id", claims.PrincipalID), zap.Error(err))
		r.markApplied(seq)
		return
	}

	if record.Deleted {
		r.forceSignOut(sessionToken)
		r.apply(seq, nil)
		return
	}

	r.apply(seq, domain.NewIdentity(claims.PrincipalID, claims.Email, record))
}

// fetchWithRetry loads the profile, retrying exactly once on transient
// errors. ErrNotFound is not transient and is returned immediately.
func (r *Resolver) fetchWithRetry(ctx context.Context, principalID string) (*domain.ProfileRecord, error) {
	record, err := r.profiles.Get(ctx, principalID)
	if err == nil || errors.Is(err, provider.ErrNotFound) || ctx.Err() != nil {
		return record, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.retryDelay):
	}
	return r.profiles.Get(ctx, principalID)
}

func (r *Resolver) forceSignOut(sessionToken string) {
	if err := r.identities.SignOut(context.Background(), sessionToken); err != nil {
		r.logger.Warn("forced sign-out failed", zap.Error(err))
	}
}

// apply publishes the identity if seq is still the newest resolution.
func (r *Resolver) apply(seq uint64, identity *domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq <= r.applied {
		return
	}
	r.applied = seq
	r.current.Store(identity)
}

// markApplied advances the sequence without changing the current value.
func (r *Resolver) markApplied(seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq > r.applied {
		r.applied = seq
	}
}

func (r *Resolver) cancelInflightLocked() {
	if r.inflightCancel != nil {
		r.inflightCancel()
		r.inflightCancel = nil
	}
}
