package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/service/admin"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/directory"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
	"github.com/Alijeyrad/healthmarket_backend/pkg/search"
)

type AdminHandler struct {
	svc       admin.Service
	directory directory.Service
}

func NewAdminHandler(svc admin.Service, dir directory.Service) *AdminHandler {
	return &AdminHandler{svc: svc, directory: dir}
}

// GET /api/v1/admin/users[?role=&status=&phone=]
func (h *AdminHandler) ListUsers(c fiber.Ctx) error {
	res, err := h.svc.ListUsers(c.Context(), admin.UserQuery{
		Role:   c.Query("role"),
		Status: c.Query("status"),
		Phone:  c.Query("phone"),
		Page:   pagination.FromFiber(c),
	})
	if err != nil {
		return mapAdminError(c, err)
	}
	return paged(c, res)
}

// GET /api/v1/admin/users/:id
func (h *AdminHandler) GetUser(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	u, err := h.svc.GetUser(c.Context(), id)
	if err != nil {
		return mapAdminError(c, err)
	}

	return ok(c, u)
}

// PATCH /api/v1/admin/users/:id/verification
func (h *AdminHandler) SetVerification(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var body struct {
		Status string `json:"status" validate:"required,oneof=approved rejected"`
		Note   string `json:"note" validate:"max=1000"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	if err := h.svc.SetVerification(c.Context(), id, body.Status, body.Note); err != nil {
		return mapAdminError(c, err)
	}

	return noContent(c)
}

// PATCH /api/v1/admin/users/:id/block
func (h *AdminHandler) Block(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	if err := h.svc.Block(c.Context(), id); err != nil {
		return mapAdminError(c, err)
	}

	return noContent(c)
}

// PATCH /api/v1/admin/users/:id/unblock
func (h *AdminHandler) Unblock(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	if err := h.svc.Unblock(c.Context(), id); err != nil {
		return mapAdminError(c, err)
	}

	return noContent(c)
}

// POST /api/v1/admin/search/reindex
func (h *AdminHandler) Reindex(c fiber.Ctx) error {
	n, err := h.directory.SyncIndex(c.Context())
	if errors.Is(err, search.ErrDisabled) {
		return conflict(c, err.Error())
	}
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, fiber.Map{"indexed": n})
}

func mapAdminError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, admin.ErrUserNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, admin.ErrInvalidDecision),
		errors.Is(err, admin.ErrNoteRequired),
		errors.Is(err, admin.ErrInvalidFilter),
		errors.Is(err, admin.ErrNotVerifiable):
		return badRequest(c, err.Error())
	case errors.Is(err, admin.ErrProfileIncomplete):
		return conflict(c, err.Error())
	case errors.Is(err, admin.ErrCannotBlockAdmin):
		return forbidden(c, err.Error())
	default:
		return internalError(c, err)
	}
}
