package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/service/establishment"
)

type EstablishmentHandler struct {
	svc establishment.Service
}

func NewEstablishmentHandler(svc establishment.Service) *EstablishmentHandler {
	return &EstablishmentHandler{svc: svc}
}

type establishmentBody struct {
	Name      string   `json:"name" validate:"required,max=200"`
	Address   string   `json:"address" validate:"required,max=500"`
	CityID    string   `json:"city_id" validate:"omitempty,uuid"`
	Latitude  *float64 `json:"latitude" validate:"required_with=Longitude,omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required_with=Latitude,omitempty,min=-180,max=180"`
	Phone     *string  `json:"phone" validate:"omitempty,max=32"`
}

func (b establishmentBody) input() (establishment.Input, error) {
	cityID, err := optionalID(b.CityID)
	if err != nil {
		return establishment.Input{}, err
	}
	return establishment.Input{
		Name:      b.Name,
		Address:   b.Address,
		CityID:    cityID,
		Latitude:  b.Latitude,
		Longitude: b.Longitude,
		Phone:     b.Phone,
	}, nil
}

func establishmentActor(c fiber.Ctx) (establishment.Actor, bool) {
	claims, valid := currentUser(c)
	if !valid {
		return establishment.Actor{}, false
	}
	return establishment.Actor{ID: claims.UserID, Role: claims.Role}, true
}

// POST /api/v1/establishments
func (h *EstablishmentHandler) Create(c fiber.Ctx) error {
	actor, valid := establishmentActor(c)
	if !valid {
		return unauthorized(c)
	}

	var body establishmentBody
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	in, err := body.input()
	if err != nil {
		return badRequest(c, "invalid city_id")
	}

	e, err := h.svc.Create(c.Context(), actor, in)
	if err != nil {
		return mapEstablishmentError(c, err)
	}

	return created(c, e)
}

// GET /api/v1/establishments/mine
func (h *EstablishmentHandler) ListMine(c fiber.Ctx) error {
	actor, valid := establishmentActor(c)
	if !valid {
		return unauthorized(c)
	}

	list, err := h.svc.ListMine(c.Context(), actor)
	if err != nil {
		return mapEstablishmentError(c, err)
	}

	return ok(c, list)
}

// GET /api/v1/establishments/:id
func (h *EstablishmentHandler) Get(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid establishment id")
	}

	e, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return mapEstablishmentError(c, err)
	}

	return ok(c, e)
}

// PUT /api/v1/establishments/:id
func (h *EstablishmentHandler) Update(c fiber.Ctx) error {
	actor, valid := establishmentActor(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid establishment id")
	}

	var body establishmentBody
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	in, err := body.input()
	if err != nil {
		return badRequest(c, "invalid city_id")
	}

	e, err := h.svc.Update(c.Context(), actor, id, in)
	if err != nil {
		return mapEstablishmentError(c, err)
	}

	return ok(c, e)
}

// DELETE /api/v1/establishments/:id
func (h *EstablishmentHandler) Deactivate(c fiber.Ctx) error {
	actor, valid := establishmentActor(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid establishment id")
	}

	if err := h.svc.Deactivate(c.Context(), actor, id); err != nil {
		return mapEstablishmentError(c, err)
	}

	return noContent(c)
}

// GET /api/v1/establishments/:id/timings[?doctor_id=]
func (h *EstablishmentHandler) ListTimings(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid establishment id")
	}
	doctorID, err := optionalID(c.Query("doctor_id"))
	if err != nil {
		return badRequest(c, "invalid doctor_id")
	}

	list, err := h.svc.ListTimings(c.Context(), id, doctorID)
	if err != nil {
		return mapEstablishmentError(c, err)
	}

	return ok(c, list)
}

// POST /api/v1/establishments/:id/timings
func (h *EstablishmentHandler) SetTiming(c fiber.Ctx) error {
	actor, valid := establishmentActor(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid establishment id")
	}

	var body struct {
		DoctorID            string `json:"doctor_id" validate:"omitempty,uuid"`
		DayOfWeek           int    `json:"day_of_week" validate:"min=0,max=6"`
		StartTime           string `json:"start_time" validate:"required"`
		EndTime             string `json:"end_time" validate:"required"`
		SlotDurationMinutes int    `json:"slot_duration_minutes" validate:"min=5,max=240"`
		ConsultationFee     *int64 `json:"consultation_fee" validate:"omitempty,min=0"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return bindError(c, err)
	}
	doctorID, err := optionalID(body.DoctorID)
	if err != nil {
		return badRequest(c, "invalid doctor_id")
	}

	t, err := h.svc.SetTiming(c.Context(), actor, id, establishment.TimingInput{
		DoctorID:            doctorID,
		DayOfWeek:           body.DayOfWeek,
		StartTime:           body.StartTime,
		EndTime:             body.EndTime,
		SlotDurationMinutes: body.SlotDurationMinutes,
		ConsultationFee:     body.ConsultationFee,
	})
	if err != nil {
		return mapEstablishmentError(c, err)
	}

	return created(c, t)
}

// DELETE /api/v1/timings/:id
func (h *EstablishmentHandler) DeleteTiming(c fiber.Ctx) error {
	actor, valid := establishmentActor(c)
	if !valid {
		return unauthorized(c)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid timing id")
	}

	if err := h.svc.DeleteTiming(c.Context(), actor, id); err != nil {
		return mapEstablishmentError(c, err)
	}

	return noContent(c)
}

func mapEstablishmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, establishment.ErrNotFound), errors.Is(err, establishment.ErrTimingNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, establishment.ErrForbidden):
		return forbidden(c, err.Error())
	case errors.Is(err, establishment.ErrInvalidTime),
		errors.Is(err, establishment.ErrInvalidTimeRange),
		errors.Is(err, establishment.ErrInvalidDay),
		errors.Is(err, establishment.ErrInvalidDuration),
		errors.Is(err, establishment.ErrInvalidInput),
		errors.Is(err, establishment.ErrDoctorNotEligible):
		return badRequest(c, err.Error())
	case errors.Is(err, establishment.ErrTimingOverlap), errors.Is(err, establishment.ErrInactive):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}
