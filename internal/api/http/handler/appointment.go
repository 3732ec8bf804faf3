package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/appointment"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrForbidden):
		return forbidden(c, err.Error())
	case errors.Is(err, appointment.ErrSlotNotAvailable),
		errors.Is(err, appointment.ErrDuplicateBooking),
		errors.Is(err, appointment.ErrDoctorUnavailable),
		errors.Is(err, appointment.ErrNotCancellable),
		errors.Is(err, appointment.ErrNotReschedulable),
		errors.Is(err, appointment.ErrNotCompletable),
		errors.Is(err, appointment.ErrTooEarly):
		return conflict(c, err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, appointment.ErrReasonTooLong),
		errors.Is(err, appointment.ErrInvalidRequest):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

func appointmentActor(c fiber.Ctx) (appointment.Actor, bool) {
	claims, valid := currentUser(c)
	if !valid {
		return appointment.Actor{}, false
	}
	return appointment.Actor{ID: claims.UserID, Role: claims.Role}, true
}

// GET /api/v1/appointments
// Scope follows the caller's role: own bookings for patients and doctors,
// bookings at owned establishments for hospitals, everything for admins.
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	actor, valid := appointmentActor(c)
	if !valid {
		return unauthorized(c)
	}

	from, err := optionalTime(c.Query("from"))
	if err != nil {
		return badRequest(c, "invalid from, expected RFC 3339")
	}
	to, err := optionalTime(c.Query("to"))
	if err != nil {
		return badRequest(c, "invalid to, expected RFC 3339")
	}
	q := appointment.ListQuery{
		Status: c.Query("status"),
		From:   from,
		To:     to,
		Page:   pagination.FromFiber(c),
	}

	var res pagination.Response[repo.Appointment]
	switch actor.Role {
	case repo.RolePatient:
		res, err = h.svc.ListForPatient(c.Context(), actor.ID, q)
	case repo.RoleDoctor:
		res, err = h.svc.ListForDoctor(c.Context(), actor.ID, q)
	case repo.RoleHospital:
		res, err = h.svc.ListForHospital(c.Context(), actor.ID, q)
	case repo.RoleAdmin:
		res, err = h.svc.ListAll(c.Context(), q)
	default:
		return forbidden(c, "")
	}
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return paged(c, res)
}

// GET /api/v1/appointments/:id
func (h *AppointmentHandler) Get(c fiber.Ctx) error {
	actor, valid := appointmentActor(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.Get(c.Context(), actor, id)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appt)
}

// POST /api/v1/appointments
func (h *AppointmentHandler) Book(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	var body struct {
		DoctorID        uuid.UUID `json:"doctor_id" validate:"required"`
		EstablishmentID uuid.UUID `json:"establishment_id" validate:"required"`
		StartTime       time.Time `json:"start_time" validate:"required"`
		Reason          string    `json:"reason" validate:"max=500"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	appt, err := h.svc.Book(c.Context(), claims.UserID, appointment.BookRequest{
		DoctorID:        body.DoctorID,
		EstablishmentID: body.EstablishmentID,
		StartTime:       body.StartTime,
		Reason:          body.Reason,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return created(c, appt)
}

// PATCH /api/v1/appointments/:id/reschedule
func (h *AppointmentHandler) Reschedule(c fiber.Ctx) error {
	actor, valid := appointmentActor(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		StartTime time.Time `json:"start_time" validate:"required"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}

	appt, err := h.svc.Reschedule(c.Context(), actor, id, body.StartTime)
	if err != nil {
		return mapAppointmentError(c, err)
	}

	return ok(c, appt)
}

// PATCH /api/v1/appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c fiber.Ctx) error {
	actor, valid := appointmentActor(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Reason string `json:"reason" validate:"max=500"`
	}
	// body is optional
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return bindError(c, err)
		}
	}

	if err := h.svc.Cancel(c.Context(), actor, id, body.Reason); err != nil {
		return mapAppointmentError(c, err)
	}

	return noContent(c)
}

// PATCH /api/v1/appointments/:id/complete
func (h *AppointmentHandler) Complete(c fiber.Ctx) error {
	actor, valid := appointmentActor(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid appointment id")
	}

	if err := h.svc.Complete(c.Context(), actor, id); err != nil {
		return mapAppointmentError(c, err)
	}

	return noContent(c)
}
