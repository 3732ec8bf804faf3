package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/pkg/reqctx"
	"github.com/Alijeyrad/healthmarket_backend/pkg/token"
)

// SessionChecker reports whether a session is still live.
type SessionChecker interface {
	SessionActive(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

// AuthRequired validates a Bearer access token and checks that its session is live.
// On success, stores *token.Claims in c.Locals(token.CtxKeyClaims) and on the user context.
func AuthRequired(mgr *token.Manager, sessions SessionChecker) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.VerifyType(strings.TrimSpace(parts[1]), token.TokenTypeAccess)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		if claims.SessionID == uuid.Nil {
			return fiber.ErrUnauthorized
		}
		live, err := sessions.SessionActive(c.Context(), claims.SessionID)
		if err != nil || !live {
			return fiber.ErrUnauthorized
		}

		c.Locals(token.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}
