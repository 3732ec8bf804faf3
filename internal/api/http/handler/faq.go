package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/service/faq"
)

type FAQHandler struct {
	svc faq.Service
}

func NewFAQHandler(svc faq.Service) *FAQHandler {
	return &FAQHandler{svc: svc}
}

// GET /api/v1/faqs[?audience=]
func (h *FAQHandler) List(c fiber.Ctx) error {
	list, err := h.svc.List(c.Context(), c.Query("audience"))
	if err != nil {
		return mapFAQError(c, err)
	}
	return ok(c, list)
}

// POST /api/v1/admin/faqs
func (h *FAQHandler) Create(c fiber.Ctx) error {
	var body faq.Input
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	f, err := h.svc.Create(c.Context(), body)
	if err != nil {
		return mapFAQError(c, err)
	}

	return created(c, f)
}

// PUT /api/v1/admin/faqs/:id
func (h *FAQHandler) Update(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid faq id")
	}

	var body faq.Input
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	f, err := h.svc.Update(c.Context(), id, body)
	if err != nil {
		return mapFAQError(c, err)
	}

	return ok(c, f)
}

// DELETE /api/v1/admin/faqs/:id
func (h *FAQHandler) Delete(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid faq id")
	}

	if err := h.svc.Delete(c.Context(), id); err != nil {
		return mapFAQError(c, err)
	}

	return noContent(c)
}

func mapFAQError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, faq.ErrInvalidAudience), errors.Is(err, faq.ErrInvalidText):
		return badRequest(c, err.Error())
	case errors.Is(err, faq.ErrNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c, err)
	}
}
