package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/comexdesk/broker-portal/internal/domain"
	"github.com/comexdesk/broker-portal/internal/provider"
	apperrors "github.com/comexdesk/broker-portal/pkg/util"
)

const identityKey = "auth_identity"

// Middleware validates bearer session tokens and loads the caller's
// Identity from the profile store.
type Middleware struct {
	tokens   *TokenManager
	profiles provider.ProfileStore
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, profiles provider.ProfileStore) *Middleware {
	return &Middleware{tokens: tokens, profiles: profiles}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	record, err := m.profiles.Get(c.UserContext(), claims.PrincipalID)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			return apperrors.NewUnauthorized("unknown principal")
		}
		return apperrors.NewInternalError(err)
	}
	if record.Deleted {
		return apperrors.NewUnauthorized("account deleted")
	}

	c.Locals(identityKey, domain.NewIdentity(claims.PrincipalID, claims.Email, record))
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*domain.Identity)
	return identity, ok && identity != nil
}
