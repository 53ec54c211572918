package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/heritage-archive/archive-service/internal/domain"
	apperrors "github.com/heritage-archive/archive-service/pkg/util"
)

const principalKey = "auth_principal"

// IdentityResolver turns a raw session token into a member record,
// creating the record on first sight. A nil user with nil error means the
// session is invalid or absent.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads the calling member.
type AuthMiddleware struct {
	resolver IdentityResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	user, err := m.resolver.Resolve(c.UserContext(), token)
	if err != nil {
		return apperrors.MapError(err)
	}
	if user == nil {
		return apperrors.NewUnauthorized("invalid session")
	}

	c.Locals(principalKey, user)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UserFromContext retrieves the authenticated member.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
