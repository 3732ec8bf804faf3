package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/handler"
	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
)

func (r *Router) registerProfileRoutes(api fiber.Router, h *handler.ProfileHandler, authRequired fiber.Handler, requirePerm permFunc) {
	group := api.Group("/profile", authRequired)
	group.Get("/", requirePerm(authorize.ResourceProfile, authorize.ActionRead), h.Get)
	group.Put("/", requirePerm(authorize.ResourceProfile, authorize.ActionUpdate), h.UpsertPatient)
	group.Put("/sections/:section", requirePerm(authorize.ResourceProfile, authorize.ActionUpdate), h.SubmitSection)
}
