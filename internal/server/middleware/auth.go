// Package middleware holds the fiber middleware shared by the HTTP routes.
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"

	identitydomain "notesmk/backend/internal/identity/domain"
	identityservice "notesmk/backend/internal/identity/service"
)

const (
	bearerPrefix = "bearer "
	identityKey  = "identity"
)

// Authenticator resolves a session credential to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (identitydomain.Identity, error)
}

// RequireSession rejects requests without a valid session and stores the resolved identity in
// Locals for the downstream handlers.
func RequireSession(auth Authenticator, cookieName string) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := Token(c, cookieName)
		if token == "" {
			return identityservice.ErrAuthRequired
		}
		who, err := auth.Authenticate(c.Context(), token)
		if err != nil {
			return err
		}
		SetIdentity(c, who)
		return c.Next()
	}
}

// SetIdentity stores who for IdentityFrom.
func SetIdentity(c fiber.Ctx, who identitydomain.Identity) {
	c.Locals(identityKey, who)
}

// IdentityFrom returns the identity stored by RequireSession.
func IdentityFrom(c fiber.Ctx) (identitydomain.Identity, bool) {
	who, ok := c.Locals(identityKey).(identitydomain.Identity)
	return who, ok && who.Valid()
}

// Token returns the session credential from the cookie, falling back to an Authorization Bearer
// header. Returns "" if neither carries one.
func Token(c fiber.Ctx, cookieName string) string {
	if v := strings.TrimSpace(c.Cookies(cookieName)); v != "" {
		return v
	}
	return bearer(c.Get(fiber.HeaderAuthorization))
}

func bearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
