package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/service/notification"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
)

type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// GET /api/v1/notifications[?unread=true]
func (h *NotificationHandler) List(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	unreadOnly := c.Query("unread") == "true"
	res, err := h.svc.List(c.Context(), claims.UserID, unreadOnly, pagination.FromFiber(c))
	if err != nil {
		return mapNotificationError(c, err)
	}

	return paged(c, res)
}

// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	n, err := h.svc.UnreadCount(c.Context(), claims.UserID)
	if err != nil {
		return mapNotificationError(c, err)
	}

	return ok(c, fiber.Map{"count": n})
}

// PATCH /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid notification id")
	}

	if err := h.svc.MarkRead(c.Context(), claims.UserID, id); err != nil {
		return mapNotificationError(c, err)
	}

	return noContent(c)
}

// PATCH /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	n, err := h.svc.MarkAllRead(c.Context(), claims.UserID)
	if err != nil {
		return mapNotificationError(c, err)
	}

	return ok(c, fiber.Map{"updated": n})
}

// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) Delete(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid notification id")
	}

	if err := h.svc.Delete(c.Context(), claims.UserID, id); err != nil {
		return mapNotificationError(c, err)
	}

	return noContent(c)
}

func mapNotificationError(c fiber.Ctx, err error) error {
	if errors.Is(err, notification.ErrNotFound) {
		return notFound(c, err.Error())
	}
	return internalError(c, err)
}
