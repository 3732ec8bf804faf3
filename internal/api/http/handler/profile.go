package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/profile"
)

type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Section bodies carry no validate tags: which fields are required depends on
// the :section path parameter, so the service checks them per section.
type doctorSectionBody struct {
	FullName            string   `json:"full_name"`
	Gender              string   `json:"gender"`
	DateOfBirth         string   `json:"date_of_birth"`
	Email               string   `json:"email"`
	CityID              string   `json:"city_id"`
	SpecializationIDs   []string `json:"specialization_ids"`
	QualificationIDs    []string `json:"qualification_ids"`
	ExperienceYears     int      `json:"experience_years"`
	RegistrationNumber  string   `json:"registration_number"`
	RegistrationCouncil string   `json:"registration_council"`
	RegistrationYear    int      `json:"registration_year"`
	ConsultationFee     int64    `json:"consultation_fee"`
	Bio                 string   `json:"bio"`
	LanguageIDs         []string `json:"language_ids"`
	ServiceIDs          []string `json:"service_ids"`
}

type hospitalSectionBody struct {
	Name               string   `json:"name"`
	HospitalType       string   `json:"hospital_type"`
	RegistrationNumber string   `json:"registration_number"`
	Address            string   `json:"address"`
	CityID             string   `json:"city_id"`
	Pincode            string   `json:"pincode"`
	ContactEmail       string   `json:"contact_email"`
	ContactPhone       string   `json:"contact_phone"`
	BedCount           int      `json:"bed_count"`
	SpecializationIDs  []string `json:"specialization_ids"`
	EmergencyAvailable bool     `json:"emergency_available"`
	Website            string   `json:"website"`
}

// GET /api/v1/profile
func (h *ProfileHandler) Get(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}

	var (
		out any
		err error
	)
	switch claims.Role {
	case repo.RoleDoctor:
		out, err = h.svc.GetDoctorProfile(c.Context(), claims.UserID)
	case repo.RoleHospital:
		out, err = h.svc.GetHospitalProfile(c.Context(), claims.UserID)
	case repo.RolePatient:
		out, err = h.svc.GetPatientProfile(c.Context(), claims.UserID)
	default:
		return forbidden(c, "this account has no profile")
	}
	if err != nil {
		return mapProfileError(c, err)
	}

	return ok(c, out)
}

// PUT /api/v1/profile/sections/:section  (doctor, hospital)
func (h *ProfileHandler) SubmitSection(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}
	section := c.Params("section")

	switch claims.Role {
	case repo.RoleDoctor:
		var b doctorSectionBody
		if err := c.Bind().JSON(&b); err != nil {
			return bindError(c, err)
		}
		p, err := h.svc.SubmitDoctorSection(c.Context(), claims.UserID, section, profile.DoctorSection{
			FullName:            b.FullName,
			Gender:              b.Gender,
			DateOfBirth:         b.DateOfBirth,
			Email:               b.Email,
			CityID:              b.CityID,
			SpecializationIDs:   b.SpecializationIDs,
			QualificationIDs:    b.QualificationIDs,
			ExperienceYears:     b.ExperienceYears,
			RegistrationNumber:  b.RegistrationNumber,
			RegistrationCouncil: b.RegistrationCouncil,
			RegistrationYear:    b.RegistrationYear,
			ConsultationFee:     b.ConsultationFee,
			Bio:                 b.Bio,
			LanguageIDs:         b.LanguageIDs,
			ServiceIDs:          b.ServiceIDs,
		})
		if err != nil {
			return mapProfileError(c, err)
		}
		return ok(c, p)

	case repo.RoleHospital:
		var b hospitalSectionBody
		if err := c.Bind().JSON(&b); err != nil {
			return bindError(c, err)
		}
		p, err := h.svc.SubmitHospitalSection(c.Context(), claims.UserID, section, profile.HospitalSection{
			Name:               b.Name,
			HospitalType:       b.HospitalType,
			RegistrationNumber: b.RegistrationNumber,
			Address:            b.Address,
			CityID:             b.CityID,
			Pincode:            b.Pincode,
			ContactEmail:       b.ContactEmail,
			ContactPhone:       b.ContactPhone,
			BedCount:           b.BedCount,
			SpecializationIDs:  b.SpecializationIDs,
			EmergencyAvailable: b.EmergencyAvailable,
			Website:            b.Website,
		})
		if err != nil {
			return mapProfileError(c, err)
		}
		return ok(c, p)
	}

	return forbidden(c, "only doctors and hospitals submit onboarding sections")
}

// PUT /api/v1/profile  (patient)
func (h *ProfileHandler) UpsertPatient(c fiber.Ctx) error {
	claims, valid := currentUser(c)
	if !valid {
		return unauthorized(c)
	}
	if claims.Role != repo.RolePatient {
		return forbidden(c, "only patients edit this profile")
	}

	var b profile.PatientInput
	if err := c.Bind().JSON(&b); err != nil {
		return bindError(c, err)
	}

	p, err := h.svc.UpsertPatientProfile(c.Context(), claims.UserID, b)
	if err != nil {
		return mapProfileError(c, err)
	}

	return ok(c, p)
}

func mapProfileError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, profile.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, profile.ErrInvalidSection), errors.Is(err, profile.ErrInvalidField):
		return badRequest(c, err.Error())
	case errors.Is(err, profile.ErrStepOutOfOrder):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}
