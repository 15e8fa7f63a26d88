package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const (
	callerKey = "auth_caller"
	claimsKey = "auth_claims"
)

// AuthMiddleware validates bearer tokens and resolves the caller.
type AuthMiddleware struct {
	tokens      *TokenManager
	accounts    repository.AccountRepository
	revocations RevocationStore
	cache       *PrincipalCache
}

// NewAuthMiddleware constructs middleware. cache may be nil.
func NewAuthMiddleware(tokens *TokenManager, accounts repository.AccountRepository, revocations RevocationStore, cache *PrincipalCache) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts, revocations: revocations, cache: cache}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ctx := c.UserContext()
	if m.revocations != nil {
		revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if revoked {
			return apperrors.NewUnauthorized("token revoked")
		}
	}

	caller, ok := m.cache.Get(claims.Subject)
	if !ok {
		account, err := m.accounts.GetByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("account not found")
			}
			return apperrors.MapError(err)
		}
		caller = domain.Caller{ID: account.ID, Role: account.Role}
		m.cache.Put(caller)
	}

	c.Locals(callerKey, caller)
	c.Locals(claimsKey, claims)
	return c.Next()
}

// CallerFromContext retrieves the authenticated caller.
func CallerFromContext(c *fiber.Ctx) (domain.Caller, bool) {
	caller, ok := c.Locals(callerKey).(domain.Caller)
	return caller, ok
}

// ClaimsFromContext retrieves the verified token claims.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*Claims)
	return claims, ok
}
