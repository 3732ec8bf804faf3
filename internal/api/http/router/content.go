package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/handler"
	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
)

func (r *Router) registerPublicContentRoutes(
	api fiber.Router,
	mh *handler.MasterDataHandler,
	fqh *handler.FAQHandler,
	fbh *handler.FeedbackHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	api.Get("/masterdata/:kind", mh.List)
	api.Get("/faqs", fqh.List)
	api.Post("/feedback", authRequired, requirePerm(authorize.ResourceFeedback, authorize.ActionCreate), fbh.SubmitPlatform)
}

func (r *Router) registerDashboardRoutes(api fiber.Router, h *handler.DashboardHandler, authRequired fiber.Handler, requirePerm permFunc) {
	api.Get("/dashboard", authRequired, requirePerm(authorize.ResourceDashboard, authorize.ActionRead), h.Get)
}
