package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/handler"
	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
)

func (r *Router) registerNotificationRoutes(api fiber.Router, h *handler.NotificationHandler, authRequired fiber.Handler, requirePerm permFunc) {
	group := api.Group("/notifications", authRequired)
	group.Get("/", requirePerm(authorize.ResourceNotification, authorize.ActionList), h.List)
	group.Get("/unread-count", requirePerm(authorize.ResourceNotification, authorize.ActionRead), h.UnreadCount)
	group.Patch("/read-all", requirePerm(authorize.ResourceNotification, authorize.ActionUpdate), h.MarkAllRead)
	group.Patch("/:id/read", requirePerm(authorize.ResourceNotification, authorize.ActionUpdate), h.MarkRead)
	group.Delete("/:id", requirePerm(authorize.ResourceNotification, authorize.ActionDelete), h.Delete)
}
