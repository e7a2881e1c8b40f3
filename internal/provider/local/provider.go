// Package local is the in-process identity provider used for
// development and tests. It keeps principals in memory, hashes
// passwords with bcrypt, issues JWT session tokens, and emits the same
// auth-event stream the hosted provider would.
package local

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comexdesk/broker-portal/internal/auth"
	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/provider"
)

// ErrInvalidCredentials is returned for unknown emails and bad passwords
// alike, so sign-in failures do not reveal which part was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken is returned when the email already has a principal.
var ErrEmailTaken = errors.New("email already registered")

type principal struct {
	id           string
	email        string
	passwordHash string
	role         domain.Role
	deleted      bool
}

// Provider implements provider.IdentityProvider in memory.
type Provider struct {
	tokens     *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int

	mu       sync.Mutex
	byEmail  map[string]*principal
	byID     map[string]*principal
	roleHint map[string]domain.Role
	events   chan provider.AuthEvent
}

// New builds the provider. The events channel is buffered so emitting
// never blocks a sign-in path on a slow consumer.
func New(tokens *auth.TokenManager, bcryptCost int, logger *zap.Logger) *Provider {
	return &Provider{
		tokens:     tokens,
		logger:     logger,
		bcryptCost: bcryptCost,
		byEmail:    make(map[string]*principal),
		byID:       make(map[string]*principal),
		roleHint:   make(map[string]domain.Role),
		events:     make(chan provider.AuthEvent, 64),
	}
}

// SignUp creates an auth principal and returns its stable id.
func (p *Provider) SignUp(ctx context.Context, email, password string) (string, error) {
	hash, err := auth.HashPassword(password, p.bcryptCost)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byEmail[email]; exists {
		return "", ErrEmailTaken
	}
	pr := &principal{
		id:           uuid.NewString(),
		email:        email,
		passwordHash: hash,
	}
	p.byEmail[email] = pr
	p.byID[pr.id] = pr
	p.logger.Info("principal created", zap.String("principal_id", pr.id))
	return pr.id, nil
}

// SetRoleHint records the role carried in issued tokens. The profile
// record remains authoritative; the hint only spares the resolver a
// lookup for capability-free endpoints.
func (p *Provider) SetRoleHint(principalID string, role domain.Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roleHint[principalID] = role
}

// SignInWithPassword authenticates, emits SIGNED_IN, and returns the
// raw session token.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (string, error) {
	p.mu.Lock()
	pr, exists := p.byEmail[email]
	var role domain.Role
	if exists {
		role = p.roleHint[pr.id]
	}
	p.mu.Unlock()

	if !exists || pr.deleted {
		return "", ErrInvalidCredentials
	}
	if err := auth.ComparePassword(pr.passwordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, _, err := p.tokens.GenerateToken(pr.id, pr.email, role)
	if err != nil {
		return "", err
	}
	p.emit(provider.AuthEvent{Kind: provider.AuthSignedIn, SessionToken: token})
	return token, nil
}

// SignOut emits SIGNED_OUT. The JWT itself stays stateless; the event is
// what settles the resolver.
func (p *Provider) SignOut(ctx context.Context, sessionToken string) error {
	p.emit(provider.AuthEvent{Kind: provider.AuthSignedOut})
	return nil
}

// RefreshToken reissues a token for an active session and emits
// TOKEN_REFRESHED.
func (p *Provider) RefreshToken(ctx context.Context, sessionToken string) (string, error) {
	claims, err := p.tokens.ParseToken(sessionToken)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	p.mu.Lock()
	pr, exists := p.byID[claims.PrincipalID]
	role := p.roleHint[claims.PrincipalID]
	p.mu.Unlock()
	if !exists || pr.deleted {
		return "", ErrInvalidCredentials
	}

	token, _, err := p.tokens.GenerateToken(pr.id, pr.email, role)
	if err != nil {
		return "", err
	}
	p.emit(provider.AuthEvent{Kind: provider.AuthTokenRefreshed, SessionToken: token})
	return token, nil
}

// DeletePrincipal is the compensating rollback for a failed profile
// creation. Best-effort: an unknown id is not an error.
func (p *Provider) DeletePrincipal(ctx context.Context, principalID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr, exists := p.byID[principalID]
	if !exists {
		return nil
	}
	pr.deleted = true
	delete(p.byEmail, pr.email)
	p.logger.Info("principal invalidated", zap.String("principal_id", principalID))
	return nil
}

// Events exposes the session event stream.
func (p *Provider) Events() <-chan provider.AuthEvent {
	return p.events
}

func (p *Provider) emit(event provider.AuthEvent) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("auth event dropped, consumer too slow", zap.String("kind", string(event.Kind)))
	}
}
