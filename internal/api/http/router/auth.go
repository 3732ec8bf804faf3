package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/handler"
	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
)

func (r *Router) registerAuthRoutes(
	api fiber.Router,
	h *handler.AuthHandler,
	authRequired fiber.Handler,
	otpLimiter fiber.Handler,
	requirePerm permFunc,
) {
	group := api.Group("/auth")

	otp := group.Group("/otp", otpLimiter)
	otp.Post("/send", h.SendOTP)
	otp.Post("/verify", h.VerifyOTP)

	group.Post("/admin/login", otpLimiter, h.AdminLogin)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", authRequired, h.Logout)
	group.Post("/logout-all", authRequired, h.LogoutAll)

	sessions := group.Group("/sessions", authRequired)
	sessions.Get("/", requirePerm(authorize.ResourceAuthSession, authorize.ActionList), h.ListSessions)
	sessions.Delete("/:id", requirePerm(authorize.ResourceAuthSession, authorize.ActionDelete), h.RevokeSession)
}
