package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
	"github.com/Alijeyrad/healthmarket_backend/pkg/reqctx"
	"github.com/Alijeyrad/healthmarket_backend/pkg/token"
)

type fakeSessions struct {
	live bool
	err  error
	seen uuid.UUID
}

func (f *fakeSessions) SessionActive(_ context.Context, id uuid.UUID) (bool, error) {
	f.seen = id
	return f.live, f.err
}

type fakeAuthz struct {
	authorize.IAuthorization
	allow   bool
	subject authorize.GroupSubject
}

func (f *fakeAuthz) MustEnforce(_ context.Context, subject authorize.GroupSubject, _ authorize.Domain, _ authorize.Resource, _ authorize.Action) error {
	f.subject = subject
	if !f.allow {
		return authorize.ErrForbidden
	}
	return nil
}

func newManager(t *testing.T) *token.Manager {
	t.Helper()
	m, err := token.NewJWT(token.Config{
		Issuer:     "healthmarket",
		Audience:   "healthmarket-api",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}, []byte(strings.Repeat("k", 32)))
	require.NoError(t, err)
	return m
}

func protectedApp(mgr *token.Manager, sessions SessionChecker) *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthRequired(mgr, sessions), func(c fiber.Ctx) error {
		claims, ok := token.ClaimsFromFiber(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		uid, ok := reqctx.UserIDFromContext(c.Context())
		if !ok || uid != claims.UserID {
			return fiber.ErrInternalServerError
		}
		return c.SendString(claims.UserID.String())
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, bearer string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestAuthRequired(t *testing.T) {
	mgr := newManager(t)
	uid, sid := uuid.New(), uuid.New()

	access, err := mgr.IssueAccess(uid, sid, "patient")
	require.NoError(t, err)
	refresh, err := mgr.IssueRefresh(uid, sid, "patient")
	require.NoError(t, err)

	t.Run("valid token and live session", func(t *testing.T) {
		sessions := &fakeSessions{live: true}
		assert.Equal(t, http.StatusOK, get(t, protectedApp(mgr, sessions), "/me", "Bearer "+access))
		assert.Equal(t, sid, sessions.seen)
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, get(t, protectedApp(mgr, &fakeSessions{live: true}), "/me", "bearer "+access))
	})

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(t, protectedApp(mgr, &fakeSessions{live: true}), "/me", ""))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(t, protectedApp(mgr, &fakeSessions{live: true}), "/me", "Basic "+access))
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(t, protectedApp(mgr, &fakeSessions{live: true}), "/me", "Bearer "+refresh))
	})

	t.Run("revoked session", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(t, protectedApp(mgr, &fakeSessions{live: false}), "/me", "Bearer "+access))
	})

	t.Run("session lookup failure", func(t *testing.T) {
		sessions := &fakeSessions{live: true, err: errors.New("redis down")}
		assert.Equal(t, http.StatusUnauthorized, get(t, protectedApp(mgr, sessions), "/me", "Bearer "+access))
	})

	t.Run("token from another key", func(t *testing.T) {
		other, err := token.NewJWT(token.Config{Issuer: "healthmarket", Audience: "healthmarket-api", AccessTTL: time.Minute, RefreshTTL: time.Hour},
			[]byte(strings.Repeat("x", 32)))
		require.NoError(t, err)
		foreign, err := other.IssueAccess(uid, sid, "patient")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, get(t, protectedApp(mgr, &fakeSessions{live: true}), "/me", "Bearer "+foreign))
	})
}

func TestRequirePermission(t *testing.T) {
	uid := uuid.New()
	withClaims := func(c fiber.Ctx) error {
		c.Locals(token.CtxKeyClaims, &token.Claims{Type: token.TokenTypeAccess, UserID: uid, SessionID: uuid.New()})
		return c.Next()
	}
	handler := func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	t.Run("allowed", func(t *testing.T) {
		authz := &fakeAuthz{allow: true}
		app := fiber.New()
		app.Get("/x", withClaims, RequirePermission(authz, authorize.ResourceUser, authorize.ActionList), handler)

		assert.Equal(t, http.StatusNoContent, get(t, app, "/x", ""))
		assert.Equal(t, authorize.GroupSubject(uid.String()), authz.subject)
	})

	t.Run("denied", func(t *testing.T) {
		app := fiber.New()
		app.Get("/x", withClaims, RequirePermission(&fakeAuthz{}, authorize.ResourceUser, authorize.ActionList), handler)
		assert.Equal(t, http.StatusForbidden, get(t, app, "/x", ""))
	})

	t.Run("no claims", func(t *testing.T) {
		app := fiber.New()
		app.Get("/x", RequirePermission(&fakeAuthz{allow: true}, authorize.ResourceUser, authorize.ActionList), handler)
		assert.Equal(t, http.StatusUnauthorized, get(t, app, "/x", ""))
	})
}
