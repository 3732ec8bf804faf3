// Package profile runs the onboarding state machine for doctors and
// hospitals and keeps the single-form patient profile.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/events"
	"github.com/Alijeyrad/healthmarket_backend/pkg/phone"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

// Section names accepted by the Submit* operations.
const (
	SectionA = "a"
	SectionB = "b"
	SectionC = "c"
)

var stepOrder = []string{repo.StepSectionA, repo.StepSectionB, repo.StepSectionC, repo.StepCompleted}

func stepIndex(step string) int {
	for i, s := range stepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

func sectionStep(section string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(section)) {
	case SectionA, repo.StepSectionA:
		return repo.StepSectionA, nil
	case SectionB, repo.StepSectionB:
		return repo.StepSectionB, nil
	case SectionC, repo.StepSectionC:
		return repo.StepSectionC, nil
	}
	return "", ErrInvalidSection
}

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

type Store interface {
	MasterLookup
	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*repo.DoctorProfile, error)
	GetHospitalProfile(ctx context.Context, userID uuid.UUID) (*repo.HospitalProfile, error)
	GetPatientProfile(ctx context.Context, userID uuid.UUID) (*repo.PatientProfile, error)
	SaveSection(ctx context.Context, kind repo.ProfileKind, userID uuid.UUID, fields map[string]any, adv *repo.StepAdvance) error
	UpsertPatientProfile(ctx context.Context, p *repo.PatientProfile) error
}

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Reindexer refreshes a doctor's search document.
type Reindexer interface {
	ReindexDoctor(ctx context.Context, doctorID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// DoctorSection carries the fields of any doctor section; only those of the
// submitted section are read and validated.
type DoctorSection struct {
	// A
	FullName    string `json:"full_name" validate:"required,max=120"`
	Gender      string `json:"gender" validate:"required,oneofci=male female other"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02,pastdate"`
	Email       string `json:"email" validate:"omitempty,email"`
	CityID      string `json:"city_id" validate:"omitempty,uuid"`
	// B
	SpecializationIDs   []string `json:"specialization_ids" validate:"required,min=1,dive,uuid"`
	QualificationIDs    []string `json:"qualification_ids" validate:"required,min=1,dive,uuid"`
	ExperienceYears     int      `json:"experience_years" validate:"min=0,max=70"`
	RegistrationNumber  string   `json:"registration_number" validate:"required,max=64"`
	RegistrationCouncil string   `json:"registration_council" validate:"required,max=120"`
	RegistrationYear    int      `json:"registration_year" validate:"min=1950,pastyear"`
	// C
	ConsultationFee int64    `json:"consultation_fee" validate:"min=0"`
	Bio             string   `json:"bio" validate:"max=2000"`
	LanguageIDs     []string `json:"language_ids" validate:"required,min=1,dive,uuid"`
	ServiceIDs      []string `json:"service_ids" validate:"omitempty,dive,uuid"`
}

func (d *DoctorSection) trim() {
	d.FullName = strings.TrimSpace(d.FullName)
	d.Gender = strings.ToLower(strings.TrimSpace(d.Gender))
	d.DateOfBirth = strings.TrimSpace(d.DateOfBirth)
	d.Email = strings.TrimSpace(d.Email)
	d.CityID = strings.TrimSpace(d.CityID)
	d.RegistrationNumber = strings.TrimSpace(d.RegistrationNumber)
	d.RegistrationCouncil = strings.TrimSpace(d.RegistrationCouncil)
	d.Bio = strings.TrimSpace(d.Bio)
}

type HospitalSection struct {
	// A
	Name               string `json:"name" validate:"required,max=200"`
	HospitalType       string `json:"hospital_type" validate:"required,max=64"`
	RegistrationNumber string `json:"registration_number" validate:"required,max=64"`
	// B
	Address      string `json:"address" validate:"required,max=500"`
	CityID       string `json:"city_id" validate:"required,uuid"`
	Pincode      string `json:"pincode" validate:"required,max=16"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	ContactPhone string `json:"contact_phone" validate:"required"`
	// C
	BedCount           int      `json:"bed_count" validate:"min=0,max=100000"`
	SpecializationIDs  []string `json:"specialization_ids" validate:"omitempty,dive,uuid"`
	EmergencyAvailable bool     `json:"emergency_available"`
	Website            string   `json:"website" validate:"omitempty,http_url"`
}

func (h *HospitalSection) trim() {
	h.Name = strings.TrimSpace(h.Name)
	h.HospitalType = strings.ToLower(strings.TrimSpace(h.HospitalType))
	h.RegistrationNumber = strings.TrimSpace(h.RegistrationNumber)
	h.Address = strings.TrimSpace(h.Address)
	h.CityID = strings.TrimSpace(h.CityID)
	h.Pincode = strings.TrimSpace(h.Pincode)
	h.ContactEmail = strings.TrimSpace(h.ContactEmail)
	h.ContactPhone = strings.TrimSpace(h.ContactPhone)
	h.Website = strings.TrimSpace(h.Website)
}

// PatientInput is bound straight from the request body. Every field is
// optional; the profile counts as completed once name and gender are set.
type PatientInput struct {
	FullName         string `json:"full_name" validate:"max=120"`
	Gender           string `json:"gender" validate:"omitempty,oneofci=male female other"`
	DateOfBirth      string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02,pastdate"`
	BloodGroup       string `json:"blood_group" validate:"omitempty,oneofci=A+ A- B+ B- AB+ AB- O+ O-"`
	CityID           string `json:"city_id" validate:"omitempty,uuid"`
	EmergencyContact string `json:"emergency_contact" validate:"max=32"`
}

func (p *PatientInput) trim() {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))
	p.DateOfBirth = strings.TrimSpace(p.DateOfBirth)
	p.BloodGroup = strings.ToUpper(strings.TrimSpace(p.BloodGroup))
	p.CityID = strings.TrimSpace(p.CityID)
	p.EmergencyContact = strings.TrimSpace(p.EmergencyContact)
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*repo.DoctorProfile, error)
	SubmitDoctorSection(ctx context.Context, userID uuid.UUID, section string, in DoctorSection) (*repo.DoctorProfile, error)
	GetHospitalProfile(ctx context.Context, userID uuid.UUID) (*repo.HospitalProfile, error)
	SubmitHospitalSection(ctx context.Context, userID uuid.UUID, section string, in HospitalSection) (*repo.HospitalProfile, error)
	GetPatientProfile(ctx context.Context, userID uuid.UUID) (*repo.PatientProfile, error)
	UpsertPatientProfile(ctx context.Context, userID uuid.UUID, in PatientInput) (*repo.PatientProfile, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type profileService struct {
	store   Store
	bus     Publisher
	index   Reindexer
	phones *phone.Normalizer
}

func New(store Store, bus Publisher, index Reindexer, phoneRegion string) Service {
	return &profileService{
		store:  store,
		bus:    bus,
		index:  index,
		phones: phone.NewNormalizer(phoneRegion),
	}
}

func notFound(err error) error {
	if repo.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func (s *profileService) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*repo.DoctorProfile, error) {
	p, err := s.store.GetDoctorProfile(ctx, userID)
	return p, notFound(err)
}

func (s *profileService) GetHospitalProfile(ctx context.Context, userID uuid.UUID) (*repo.HospitalProfile, error) {
	p, err := s.store.GetHospitalProfile(ctx, userID)
	return p, notFound(err)
}

func (s *profileService) GetPatientProfile(ctx context.Context, userID uuid.UUID) (*repo.PatientProfile, error) {
	p, err := s.store.GetPatientProfile(ctx, userID)
	return p, notFound(err)
}

// advanceFor decides how a submission of target moves the current step.
// Submitting the current step advances it; earlier sections are edits.
func advanceFor(current, target string) (*repo.StepAdvance, error) {
	ci, ti := stepIndex(current), stepIndex(target)
	switch {
	case ti > ci:
		return nil, ErrStepOutOfOrder
	case ti == ci:
		return &repo.StepAdvance{From: current, To: stepOrder[ci+1]}, nil
	default:
		return nil, nil
	}
}

// save writes the section and publishes profile.completed when the write
// finished onboarding.
func (s *profileService) save(ctx context.Context, kind repo.ProfileKind, role string, userID uuid.UUID, current, target string, fields map[string]any) error {
	adv, err := advanceFor(current, target)
	if err != nil {
		return err
	}

	if err := s.store.SaveSection(ctx, kind, userID, fields, adv); err != nil {
		if errors.Is(err, repo.ErrStale) {
			return ErrStepOutOfOrder
		}
		return fmt.Errorf("save section: %w", notFound(err))
	}

	if adv != nil && adv.To == repo.StepCompleted {
		ev := events.ProfileEvent{UserID: userID, Role: role, Status: repo.VerificationPending}
		if err := s.bus.Publish(ctx, events.SubjectProfileCompleted, ev); err != nil {
			slog.Warn("failed to publish profile completion", "user_id", userID, "error", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Doctor
// ---------------------------------------------------------------------------

func (s *profileService) SubmitDoctorSection(ctx context.Context, userID uuid.UUID, section string, in DoctorSection) (*repo.DoctorProfile, error) {
	target, err := sectionStep(section)
	if err != nil {
		return nil, err
	}
	current, err := s.GetDoctorProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stepIndex(target) > stepIndex(current.Step) {
		return nil, ErrStepOutOfOrder
	}

	fields, err := s.doctorFields(ctx, target, in)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, repo.DoctorProfiles, repo.RoleDoctor, userID, current.Step, target, fields); err != nil {
		return nil, err
	}

	updated, err := s.GetDoctorProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if updated.VerificationStatus == repo.VerificationApproved {
		if err := s.index.ReindexDoctor(ctx, userID); err != nil {
			slog.Warn("failed to reindex doctor", "user_id", userID, "error", err)
		}
	}
	return updated, nil
}

func (s *profileService) doctorFields(ctx context.Context, step string, in DoctorSection) (map[string]any, error) {
	fields, ok := doctorSectionFields[step]
	if !ok {
		return nil, ErrInvalidSection
	}
	in.trim()
	if err := checkTags(validation.StructPartial(in, fields...)); err != nil {
		return nil, err
	}

	switch step {
	case repo.StepSectionA:
		city, err := checkCity(ctx, s.store, in.CityID, false)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"full_name":     in.FullName,
			"gender":        in.Gender,
			"date_of_birth": date(in.DateOfBirth),
			"email":         in.Email,
			"city_id":       city,
		}, nil

	case repo.StepSectionB:
		specs, err := checkRefs(ctx, s.store, "specialization_ids", repo.KindSpecialization, in.SpecializationIDs, true)
		if err != nil {
			return nil, err
		}
		quals, err := checkRefs(ctx, s.store, "qualification_ids", repo.KindQualification, in.QualificationIDs, true)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"specialization_ids":   specs,
			"qualification_ids":    quals,
			"experience_years":     in.ExperienceYears,
			"registration_number":  in.RegistrationNumber,
			"registration_council": in.RegistrationCouncil,
			"registration_year":    in.RegistrationYear,
		}, nil

	default:
		langs, err := checkRefs(ctx, s.store, "language_ids", repo.KindLanguage, in.LanguageIDs, true)
		if err != nil {
			return nil, err
		}
		services, err := checkRefs(ctx, s.store, "service_ids", repo.KindService, in.ServiceIDs, false)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"consultation_fee": in.ConsultationFee,
			"bio":              in.Bio,
			"language_ids":     langs,
			"service_ids":      services,
		}, nil
	}
}

// ---------------------------------------------------------------------------
// Hospital
// ---------------------------------------------------------------------------

func (s *profileService) SubmitHospitalSection(ctx context.Context, userID uuid.UUID, section string, in HospitalSection) (*repo.HospitalProfile, error) {
	target, err := sectionStep(section)
	if err != nil {
		return nil, err
	}
	current, err := s.GetHospitalProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stepIndex(target) > stepIndex(current.Step) {
		return nil, ErrStepOutOfOrder
	}

	fields, err := s.hospitalFields(ctx, target, in)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, repo.HospitalProfiles, repo.RoleHospital, userID, current.Step, target, fields); err != nil {
		return nil, err
	}
	return s.GetHospitalProfile(ctx, userID)
}

func (s *profileService) hospitalFields(ctx context.Context, step string, in HospitalSection) (map[string]any, error) {
	fields, ok := hospitalSectionFields[step]
	if !ok {
		return nil, ErrInvalidSection
	}
	in.trim()
	if err := checkTags(validation.StructPartial(in, fields...)); err != nil {
		return nil, err
	}

	switch step {
	case repo.StepSectionA:
		return map[string]any{
			"name":                in.Name,
			"hospital_type":       in.HospitalType,
			"registration_number": in.RegistrationNumber,
		}, nil

	case repo.StepSectionB:
		city, err := checkCity(ctx, s.store, in.CityID, true)
		if err != nil {
			return nil, err
		}
		ph, err := s.phones.E164(in.ContactPhone)
		if err != nil {
			return nil, invalid("contact_phone", "is not a valid phone number")
		}
		return map[string]any{
			"address":       in.Address,
			"city_id":       city,
			"pincode":       in.Pincode,
			"contact_email": in.ContactEmail,
			"contact_phone": ph,
		}, nil

	default:
		specs, err := checkRefs(ctx, s.store, "specialization_ids", repo.KindSpecialization, in.SpecializationIDs, false)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"bed_count":           in.BedCount,
			"specialization_ids":  specs,
			"emergency_available": in.EmergencyAvailable,
			"website":             in.Website,
		}, nil
	}
}

// ---------------------------------------------------------------------------
// Patient
// ---------------------------------------------------------------------------

func (s *profileService) UpsertPatientProfile(ctx context.Context, userID uuid.UUID, in PatientInput) (*repo.PatientProfile, error) {
	in.trim()
	if err := checkTags(validation.Struct(in)); err != nil {
		return nil, err
	}

	p := &repo.PatientProfile{
		UserID:      userID,
		FullName:    in.FullName,
		Gender:      in.Gender,
		DateOfBirth: date(in.DateOfBirth),
		BloodGroup:  in.BloodGroup,
	}

	var err error
	if p.CityID, err = checkCity(ctx, s.store, in.CityID, false); err != nil {
		return nil, err
	}

	if in.EmergencyContact != "" {
		norm, err := s.phones.E164(in.EmergencyContact)
		if err != nil {
			return nil, invalid("emergency_contact", "is not a valid phone number")
		}
		p.EmergencyContact = norm
	}

	p.Completed = p.FullName != "" && p.Gender != ""

	if err := s.store.UpsertPatientProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert patient profile: %w", err)
	}
	return s.GetPatientProfile(ctx, userID)
}
