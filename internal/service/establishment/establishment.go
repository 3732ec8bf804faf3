// Package establishment manages clinics and hospital sites and the weekly
// timings doctors work at them.
package establishment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

type Store interface {
	CreateEstablishment(ctx context.Context, e *repo.Establishment) error
	GetEstablishment(ctx context.Context, id uuid.UUID) (*repo.Establishment, error)
	UpdateEstablishment(ctx context.Context, e *repo.Establishment) error
	DeactivateEstablishment(ctx context.Context, id uuid.UUID) error
	ListEstablishmentsByOwner(ctx context.Context, ownerID uuid.UUID, activeOnly bool) ([]repo.Establishment, error)
	CreateTiming(ctx context.Context, t *repo.Timing) error
	GetTiming(ctx context.Context, id uuid.UUID) (*repo.Timing, error)
	DeleteTiming(ctx context.Context, id uuid.UUID) error
	ListTimings(ctx context.Context, f repo.TimingFilter) ([]repo.Timing, error)
	IsListableDoctor(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Actor is the authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Input struct {
	Name      string     `json:"name" validate:"required,max=200"`
	Address   string     `json:"address" validate:"required,max=500"`
	CityID    *uuid.UUID `json:"city_id"`
	Latitude  *float64   `json:"latitude" validate:"required_with=Longitude,omitempty,min=-90,max=90"`
	Longitude *float64   `json:"longitude" validate:"required_with=Latitude,omitempty,min=-180,max=180"`
	Phone     *string    `json:"phone" validate:"omitempty,max=32"`
}

type TimingInput struct {
	DoctorID            *uuid.UUID `json:"doctor_id"` // defaults to the actor for doctors
	DayOfWeek           int        `json:"day_of_week" validate:"min=0,max=6"`
	StartTime           string     `json:"start_time" validate:"required"` // HH:MM
	EndTime             string     `json:"end_time" validate:"required"`   // HH:MM
	SlotDurationMinutes int        `json:"slot_duration_minutes" validate:"min=5,max=240"`
	ConsultationFee     *int64     `json:"consultation_fee" validate:"omitempty,min=0"`
}

// TimingView renders a timing with HH:MM clock values.
type TimingView struct {
	repo.Timing
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func View(t repo.Timing) TimingView {
	return TimingView{Timing: t, StartTime: FormatClock(t.StartMinute), EndTime: FormatClock(t.EndMinute)}
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, actor Actor, in Input) (*repo.Establishment, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, in Input) (*repo.Establishment, error)
	Get(ctx context.Context, id uuid.UUID) (*repo.Establishment, error)
	ListMine(ctx context.Context, actor Actor) ([]repo.Establishment, error)
	Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error

	ListTimings(ctx context.Context, establishmentID uuid.UUID, doctorID *uuid.UUID) ([]TimingView, error)
	SetTiming(ctx context.Context, actor Actor, establishmentID uuid.UUID, in TimingInput) (*TimingView, error)
	DeleteTiming(ctx context.Context, actor Actor, timingID uuid.UUID) error
}

type establishmentService struct {
	store Store
}

func New(store Store) Service {
	return &establishmentService{store: store}
}

// ---------------------------------------------------------------------------
// Establishments
// ---------------------------------------------------------------------------

func kindFor(role string) (string, error) {
	switch role {
	case repo.RoleDoctor:
		return repo.EstablishmentClinic, nil
	case repo.RoleHospital:
		return repo.EstablishmentHospital, nil
	}
	return "", ErrForbidden
}

// check maps tag failures onto the package's errors. Day and duration keep
// their dedicated messages; everything else is ErrInvalidInput.
func check(in any) error {
	err := validation.Struct(in)
	if err == nil {
		return nil
	}
	var verr validation.Errors
	if !errors.As(err, &verr) {
		return err
	}
	switch {
	case verr.Has("day_of_week"):
		return ErrInvalidDay
	case verr.Has("slot_duration_minutes"):
		return ErrInvalidDuration
	case verr.Has("start_time"), verr.Has("end_time"):
		return ErrInvalidTime
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, verr)
}

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	return in, check(in)
}

func (s *establishmentService) Create(ctx context.Context, actor Actor, in Input) (*repo.Establishment, error) {
	kind, err := kindFor(actor.Role)
	if err != nil {
		return nil, err
	}
	in, err = normalize(in)
	if err != nil {
		return nil, err
	}

	e := &repo.Establishment{
		OwnerID:   actor.ID,
		Kind:      kind,
		Name:      in.Name,
		Address:   in.Address,
		CityID:    in.CityID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Phone:     in.Phone,
	}
	if err := s.store.CreateEstablishment(ctx, e); err != nil {
		return nil, fmt.Errorf("create establishment: %w", err)
	}
	return e, nil
}

// owned loads the establishment and checks the actor owns it.
func (s *establishmentService) owned(ctx context.Context, actor Actor, id uuid.UUID) (*repo.Establishment, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != actor.ID {
		return nil, ErrForbidden
	}
	return e, nil
}

func (s *establishmentService) Update(ctx context.Context, actor Actor, id uuid.UUID, in Input) (*repo.Establishment, error) {
	e, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	in, err = normalize(in)
	if err != nil {
		return nil, err
	}

	e.Name, e.Address, e.CityID = in.Name, in.Address, in.CityID
	e.Latitude, e.Longitude, e.Phone = in.Latitude, in.Longitude, in.Phone
	if err := s.store.UpdateEstablishment(ctx, e); err != nil {
		return nil, fmt.Errorf("update establishment: %w", err)
	}
	return e, nil
}

func (s *establishmentService) Get(ctx context.Context, id uuid.UUID) (*repo.Establishment, error) {
	e, err := s.store.GetEstablishment(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get establishment: %w", err)
	}
	return e, nil
}

func (s *establishmentService) ListMine(ctx context.Context, actor Actor) ([]repo.Establishment, error) {
	return s.store.ListEstablishmentsByOwner(ctx, actor.ID, false)
}

func (s *establishmentService) Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.store.DeactivateEstablishment(ctx, id)
}

// ---------------------------------------------------------------------------
// Timings
// ---------------------------------------------------------------------------

// ParseClock converts "HH:MM" into minutes after midnight. "24:00" is
// accepted as the end of day.
func ParseClock(v string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return 0, ErrInvalidTime
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, ErrInvalidTime
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, ErrInvalidTime
	}
	total := hh*60 + mm
	if hh < 0 || total > 24*60 {
		return 0, ErrInvalidTime
	}
	return total, nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func (s *establishmentService) ListTimings(ctx context.Context, establishmentID uuid.UUID, doctorID *uuid.UUID) ([]TimingView, error) {
	rows, err := s.store.ListTimings(ctx, repo.TimingFilter{
		EstablishmentID: &establishmentID,
		DoctorID:        doctorID,
		ActiveOnly:      true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]TimingView, 0, len(rows))
	for _, t := range rows {
		out = append(out, View(t))
	}
	return out, nil
}

func (s *establishmentService) SetTiming(ctx context.Context, actor Actor, establishmentID uuid.UUID, in TimingInput) (*TimingView, error) {
	e, err := s.owned(ctx, actor, establishmentID)
	if err != nil {
		return nil, err
	}
	if !e.IsActive {
		return nil, ErrInactive
	}

	doctorID, err := s.timingDoctor(ctx, actor, in.DoctorID)
	if err != nil {
		return nil, err
	}

	if err := check(in); err != nil {
		return nil, err
	}
	start, err := ParseClock(in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(in.EndTime)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, ErrInvalidTimeRange
	}
	if in.SlotDurationMinutes > end-start {
		return nil, ErrInvalidTimeRange
	}

	t := &repo.Timing{
		EstablishmentID:     establishmentID,
		DoctorID:            doctorID,
		DayOfWeek:           in.DayOfWeek,
		StartMinute:         start,
		EndMinute:           end,
		SlotDurationMinutes: in.SlotDurationMinutes,
		ConsultationFee:     in.ConsultationFee,
	}
	if err := s.store.CreateTiming(ctx, t); err != nil {
		if repo.IsConstraint(err, repo.ConstraintTimingOverlap) {
			return nil, ErrTimingOverlap
		}
		return nil, fmt.Errorf("create timing: %w", err)
	}
	v := View(*t)
	return &v, nil
}

// timingDoctor resolves whose timing is being set. Doctors manage only
// their own timings; hospitals pick any approved doctor.
func (s *establishmentService) timingDoctor(ctx context.Context, actor Actor, requested *uuid.UUID) (uuid.UUID, error) {
	switch actor.Role {
	case repo.RoleDoctor:
		if requested != nil && *requested != actor.ID {
			return uuid.Nil, ErrForbidden
		}
		return actor.ID, nil
	case repo.RoleHospital:
		if requested == nil {
			return uuid.Nil, ErrDoctorNotEligible
		}
		ok, err := s.store.IsListableDoctor(ctx, *requested)
		if err != nil {
			return uuid.Nil, err
		}
		if !ok {
			return uuid.Nil, ErrDoctorNotEligible
		}
		return *requested, nil
	}
	return uuid.Nil, ErrForbidden
}

func (s *establishmentService) DeleteTiming(ctx context.Context, actor Actor, timingID uuid.UUID) error {
	t, err := s.store.GetTiming(ctx, timingID)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrTimingNotFound
		}
		return fmt.Errorf("get timing: %w", err)
	}
	if _, err := s.owned(ctx, actor, t.EstablishmentID); err != nil {
		return err
	}
	if err := s.store.DeleteTiming(ctx, timingID); err != nil {
		if repo.IsNotFound(err) {
			return ErrTimingNotFound
		}
		return err
	}
	return nil
}
