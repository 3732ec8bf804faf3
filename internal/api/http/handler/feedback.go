package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/service/feedback"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
)

type FeedbackHandler struct {
	svc feedback.Service
}

func NewFeedbackHandler(svc feedback.Service) *FeedbackHandler {
	return &FeedbackHandler{svc: svc}
}

// POST /api/v1/feedback
func (h *FeedbackHandler) SubmitPlatform(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		Rating  int    `json:"rating" validate:"min=1,max=5"`
		Message string `json:"message" validate:"max=2000"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	fb, err := h.svc.SubmitPlatformFeedback(c.Context(), claims.UserID, body.Rating, body.Message)
	if err != nil {
		return mapFeedbackError(c, err)
	}

	return created(c, fb)
}

// GET /api/v1/admin/feedback
func (h *FeedbackHandler) ListPlatform(c fiber.Ctx) error {
	res, err := h.svc.ListPlatformFeedback(c.Context(), pagination.FromFiber(c))
	if err != nil {
		return mapFeedbackError(c, err)
	}
	return paged(c, res)
}

// POST /api/v1/appointments/:id/feedback
func (h *FeedbackHandler) SubmitAppointment(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body feedback.AppointmentInput
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	fb, err := h.svc.SubmitAppointmentFeedback(c.Context(), claims.UserID, id, body)
	if err != nil {
		return mapFeedbackError(c, err)
	}

	return created(c, fb)
}

// GET /api/v1/doctors/:id/reviews
func (h *FeedbackHandler) DoctorReviews(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid doctor id")
	}

	res, err := h.svc.ListDoctorReviews(c.Context(), id, pagination.FromFiber(c))
	if err != nil {
		return mapFeedbackError(c, err)
	}

	return paged(c, res)
}

func mapFeedbackError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, feedback.ErrInvalidRating),
		errors.Is(err, feedback.ErrMessageTooLong),
		errors.Is(err, feedback.ErrUnknownQuestion):
		return badRequest(c, err.Error())
	case errors.Is(err, feedback.ErrAppointmentNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, feedback.ErrNotCompleted), errors.Is(err, feedback.ErrAlreadySubmitted):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}
