package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/handler"
	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
)

func (r *Router) registerEstablishmentRoutes(
	api fiber.Router,
	h *handler.EstablishmentHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	est := api.Group("/establishments")

	est.Post("/", authRequired, requirePerm(authorize.ResourceEstablishment, authorize.ActionCreate), h.Create)
	est.Get("/mine", authRequired, requirePerm(authorize.ResourceEstablishment, authorize.ActionList), h.ListMine)

	// public
	est.Get("/:id", h.Get)
	est.Get("/:id/timings", h.ListTimings)

	est.Put("/:id", authRequired, requirePerm(authorize.ResourceEstablishment, authorize.ActionUpdate), h.Update)
	est.Delete("/:id", authRequired, requirePerm(authorize.ResourceEstablishment, authorize.ActionDelete), h.Deactivate)
	est.Post("/:id/timings", authRequired, requirePerm(authorize.ResourceTiming, authorize.ActionCreate), h.SetTiming)

	api.Delete("/timings/:id", authRequired, requirePerm(authorize.ResourceTiming, authorize.ActionDelete), h.DeleteTiming)
}
