package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/service/directory"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/scheduling"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
)

type DirectoryHandler struct {
	svc   directory.Service
	slots scheduling.Service
}

func NewDirectoryHandler(svc directory.Service, slots scheduling.Service) *DirectoryHandler {
	return &DirectoryHandler{svc: svc, slots: slots}
}

// GET /api/v1/doctors
func (h *DirectoryHandler) SearchDoctors(c fiber.Ctx) error {
	specID, err := optionalID(c.Query("specialization_id"))
	if err != nil {
		return badRequest(c, "invalid specialization_id")
	}
	cityID, err := optionalID(c.Query("city_id"))
	if err != nil {
		return badRequest(c, "invalid city_id")
	}

	res, err := h.svc.SearchDoctors(c.Context(), directory.SearchQuery{
		Query:            c.Query("q"),
		SpecializationID: specID,
		CityID:           cityID,
		Page:             pagination.FromFiber(c),
	})
	if err != nil {
		return mapDirectoryError(c, err)
	}

	return paged(c, res)
}

// GET /api/v1/doctors/:id
func (h *DirectoryHandler) GetDoctor(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid doctor id")
	}

	d, err := h.svc.GetDoctor(c.Context(), id)
	if err != nil {
		return mapDirectoryError(c, err)
	}

	return ok(c, d)
}

// GET /api/v1/doctors/:id/slots?date=YYYY-MM-DD[&establishment_id=]
func (h *DirectoryHandler) DoctorSlots(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid doctor id")
	}
	estID, err := optionalID(c.Query("establishment_id"))
	if err != nil {
		return badRequest(c, "invalid establishment_id")
	}
	date := c.Query("date")
	if date == "" {
		return badRequest(c, "date is required")
	}

	slots, err := h.slots.AvailableSlots(c.Context(), id, estID, date)
	if err != nil {
		return mapSchedulingError(c, err)
	}

	return ok(c, slots)
}

// GET /api/v1/hospitals
func (h *DirectoryHandler) ListHospitals(c fiber.Ctx) error {
	cityID, err := optionalID(c.Query("city_id"))
	if err != nil {
		return badRequest(c, "invalid city_id")
	}

	res, err := h.svc.ListHospitals(c.Context(), cityID, pagination.FromFiber(c))
	if err != nil {
		return mapDirectoryError(c, err)
	}

	return paged(c, res)
}

// GET /api/v1/hospitals/:id
func (h *DirectoryHandler) GetHospital(c fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid hospital id")
	}

	d, err := h.svc.GetHospital(c.Context(), id)
	if err != nil {
		return mapDirectoryError(c, err)
	}

	return ok(c, d)
}

func mapDirectoryError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, directory.ErrDoctorNotFound), errors.Is(err, directory.ErrHospitalNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c, err)
	}
}

func mapSchedulingError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, scheduling.ErrInvalidDate),
		errors.Is(err, scheduling.ErrPastDate),
		errors.Is(err, scheduling.ErrDateTooFar):
		return badRequest(c, err.Error())
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, scheduling.ErrSlotNotAvailable):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}
