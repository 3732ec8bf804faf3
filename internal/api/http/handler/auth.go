package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/service/auth"
	"github.com/Alijeyrad/healthmarket_backend/pkg/reqctx"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type deviceBody struct {
	DeviceID   string `json:"device_id" validate:"max=128"`
	DeviceType string `json:"device_type" validate:"max=32"`
	DeviceName string `json:"device_name" validate:"max=120"`
}

// resolveID falls back to the X-Device-Id header when the body has no device_id.
func (d *deviceBody) resolveID(c fiber.Ctx) {
	if d.DeviceID != "" {
		return
	}
	if meta, ok := reqctx.RequestMetaFromContext(c.Context()); ok {
		d.DeviceID = meta.DeviceID
	}
}

func (d deviceBody) device(c fiber.Ctx) auth.Device {
	return auth.Device{
		ID:        d.DeviceID,
		Type:      d.DeviceType,
		Name:      d.DeviceName,
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

func loginResponse(res *auth.LoginResult) fiber.Map {
	return fiber.Map{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"expires_in":    res.ExpiresIn,
		"session_id":    res.SessionID,
		"is_new_user":   res.IsNewUser,
		"user":          res.User,
	}
}

// POST /api/v1/auth/otp/send
func (h *AuthHandler) SendOTP(c fiber.Ctx) error {
	var body struct {
		Phone string `json:"phone" validate:"required,max=20"`
		Role  string `json:"role" validate:"required,oneof=patient doctor hospital"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	res, err := h.svc.SendOTP(c.Context(), auth.SendOTPRequest{Phone: body.Phone, Role: body.Role})
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, fiber.Map{
		"phone":       res.Phone,
		"expires_in":  res.ExpiresIn,
		"is_new_user": res.IsNewUser,
	})
}

// POST /api/v1/auth/otp/verify
func (h *AuthHandler) VerifyOTP(c fiber.Ctx) error {
	var body struct {
		Phone string `json:"phone" validate:"required,max=20"`
		Code  string `json:"code" validate:"required,numeric,max=8"`
		Role  string `json:"role" validate:"required,oneof=patient doctor hospital"`
		deviceBody
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	body.resolveID(c)
	if body.DeviceID == "" {
		return badRequest(c, "device_id is required")
	}

	res, err := h.svc.VerifyOTP(c.Context(), auth.VerifyOTPRequest{
		Phone:  body.Phone,
		Code:   body.Code,
		Role:   body.Role,
		Device: body.device(c),
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, loginResponse(res))
}

// POST /api/v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c fiber.Ctx) error {
	var body struct {
		Phone    string `json:"phone" validate:"required,max=20"`
		Password string `json:"password" validate:"required,max=128"`
		deviceBody
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	body.resolveID(c)
	if body.DeviceID == "" {
		body.DeviceID = "admin-console"
	}
	if body.DeviceType == "" {
		body.DeviceType = "web"
	}

	res, err := h.svc.AdminLogin(c.Context(), auth.AdminLoginRequest{
		Phone:    body.Phone,
		Password: body.Password,
		Device:   body.device(c),
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, loginResponse(res))
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	tokens, err := h.svc.Refresh(c.Context(), body.RefreshToken)
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, fiber.Map{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

// POST /api/v1/auth/logout  (requires AuthRequired middleware)
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	if err := h.svc.Logout(c.Context(), claims.UserID, claims.SessionID); err != nil {
		return mapAuthError(c, err)
	}

	return noContent(c)
}

// POST /api/v1/auth/logout-all  (requires AuthRequired middleware)
func (h *AuthHandler) LogoutAll(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	if err := h.svc.LogoutAll(c.Context(), claims.UserID); err != nil {
		return mapAuthError(c, err)
	}

	return noContent(c)
}

// GET /api/v1/auth/sessions
func (h *AuthHandler) ListSessions(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	sessions, err := h.svc.ListSessions(c.Context(), claims.UserID)
	if err != nil {
		return mapAuthError(c, err)
	}

	out := make([]fiber.Map, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, fiber.Map{
			"session":    s,
			"is_current": s.ID == claims.SessionID,
		})
	}
	return ok(c, out)
}

// DELETE /api/v1/auth/sessions/:id
func (h *AuthHandler) RevokeSession(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	sid, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	if err := h.svc.RevokeSession(c.Context(), claims.UserID, sid); err != nil {
		return mapAuthError(c, err)
	}

	return noContent(c)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapAuthError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidPhone),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrOTPExpired),
		errors.Is(err, auth.ErrOTPInvalid),
		errors.Is(err, auth.ErrPasswordTooShort):
		return badRequest(c, err.Error())
	case errors.Is(err, auth.ErrRoleMismatch), errors.Is(err, auth.ErrPhoneTaken):
		return conflict(c, err.Error())
	case errors.Is(err, auth.ErrAccountBlocked):
		return forbidden(c, err.Error())
	case errors.Is(err, auth.ErrOTPCooldown),
		errors.Is(err, auth.ErrOTPMaxAttempts),
		errors.Is(err, auth.ErrAccountLocked):
		return tooManyRequests(c, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrSessionNotFound):
		return unauthorizedMsg(c, err.Error())
	default:
		return internalError(c, err)
	}
}
