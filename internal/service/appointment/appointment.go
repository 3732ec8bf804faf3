// Package appointment runs the booking lifecycle: book, reschedule, cancel
// and complete.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/internal/service/scheduling"
	"github.com/Alijeyrad/healthmarket_backend/pkg/events"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

type Store interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*repo.Appointment, error)
	CreateAppointment(ctx context.Context, a *repo.Appointment) error
	RescheduleAppointment(ctx context.Context, oldID uuid.UUID, next *repo.Appointment) error
	CancelAppointment(ctx context.Context, id, by uuid.UUID, reason string) error
	CompleteAppointment(ctx context.Context, id uuid.UUID) error
	ListAppointments(ctx context.Context, f repo.AppointmentFilter, limit, offset int) ([]repo.Appointment, int, error)
	GetEstablishment(ctx context.Context, id uuid.UUID) (*repo.Establishment, error)
}

// SlotFinder confirms that a start time is an open slot.
type SlotFinder interface {
	FindSlot(ctx context.Context, doctorID, establishmentID uuid.UUID, start time.Time) (*scheduling.Slot, error)
}

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Actor is the authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type BookRequest struct {
	DoctorID        uuid.UUID `validate:"required"`
	EstablishmentID uuid.UUID `validate:"required"`
	StartTime       time.Time `validate:"required"`
	Reason          string    `json:"reason" validate:"max=500"`
}

type ListQuery struct {
	Status string
	From   *time.Time
	To     *time.Time
	Page   pagination.Params
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Book(ctx context.Context, patientID uuid.UUID, req BookRequest) (*repo.Appointment, error)
	Reschedule(ctx context.Context, actor Actor, id uuid.UUID, newStart time.Time) (*repo.Appointment, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) error
	Complete(ctx context.Context, actor Actor, id uuid.UUID) error

	Get(ctx context.Context, actor Actor, id uuid.UUID) (*repo.Appointment, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID, q ListQuery) (pagination.Response[repo.Appointment], error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID, q ListQuery) (pagination.Response[repo.Appointment], error)
	ListForHospital(ctx context.Context, ownerID uuid.UUID, q ListQuery) (pagination.Response[repo.Appointment], error)
	ListAll(ctx context.Context, q ListQuery) (pagination.Response[repo.Appointment], error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	store Store
	slots SlotFinder
	bus   Publisher
	now   func() time.Time
}

func New(store Store, slots SlotFinder, bus Publisher) Service {
	return &appointmentService{store: store, slots: slots, bus: bus, now: time.Now}
}

func (s *appointmentService) load(ctx context.Context, id uuid.UUID) (*repo.Appointment, error) {
	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

// isOwner reports whether the actor owns the appointment's establishment.
func (s *appointmentService) isOwner(ctx context.Context, actor Actor, a *repo.Appointment) (bool, error) {
	if actor.Role != repo.RoleDoctor && actor.Role != repo.RoleHospital {
		return false, nil
	}
	e, err := s.store.GetEstablishment(ctx, a.EstablishmentID)
	if err != nil {
		if repo.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return e.OwnerID == actor.ID, nil
}

// canManage allows the doctor and the establishment owner, and the patient
// when withPatient is set.
func (s *appointmentService) canManage(ctx context.Context, actor Actor, a *repo.Appointment, withPatient bool) error {
	switch {
	case withPatient && actor.ID == a.PatientID:
		return nil
	case actor.ID == a.DoctorID:
		return nil
	}
	ok, err := s.isOwner(ctx, actor, a)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *appointmentService) publish(ctx context.Context, subject string, a *repo.Appointment, actor uuid.UUID, reason string, previous *time.Time) {
	ev := events.AppointmentEvent{
		AppointmentID:   a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		EstablishmentID: a.EstablishmentID,
		StartTime:       a.StartTime,
		PreviousStart:   previous,
		ActorID:         actor,
		Reason:          reason,
	}
	if err := s.bus.Publish(ctx, subject, ev); err != nil {
		slog.Warn("failed to publish appointment event", "subject", subject, "appointment_id", a.ID, "error", err)
	}
}

func (s *appointmentService) findSlot(ctx context.Context, doctorID, establishmentID uuid.UUID, start time.Time) (*scheduling.Slot, error) {
	slot, err := s.slots.FindSlot(ctx, doctorID, establishmentID, start)
	switch {
	case err == nil:
		return slot, nil
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		return nil, ErrDoctorUnavailable
	case errors.Is(err, scheduling.ErrSlotNotAvailable):
		return nil, ErrSlotNotAvailable
	}
	return nil, err
}

func bookingConflict(err error) error {
	switch {
	case repo.IsConstraint(err, repo.ConstraintDoctorOverlap):
		return ErrSlotNotAvailable
	case repo.IsConstraint(err, repo.ConstraintPatientStartBooked):
		return ErrDuplicateBooking
	}
	return nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (s *appointmentService) Book(ctx context.Context, patientID uuid.UUID, req BookRequest) (*repo.Appointment, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validation.Struct(req); err != nil {
		var verr validation.Errors
		if errors.As(err, &verr) && verr.Has("reason") {
			return nil, ErrReasonTooLong
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if req.DoctorID == patientID {
		return nil, ErrForbidden
	}

	slot, err := s.findSlot(ctx, req.DoctorID, req.EstablishmentID, req.StartTime)
	if err != nil {
		return nil, err
	}

	a := &repo.Appointment{
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		EstablishmentID: slot.EstablishmentID,
		StartTime:       slot.Start.UTC(),
		EndTime:         slot.End.UTC(),
		Reason:          req.Reason,
		ConsultationFee: slot.Fee,
	}
	if err := s.store.CreateAppointment(ctx, a); err != nil {
		if c := bookingConflict(err); c != nil {
			return nil, c
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.publish(ctx, events.SubjectAppointmentBooked, a, patientID, a.Reason, nil)
	return a, nil
}

func (s *appointmentService) Reschedule(ctx context.Context, actor Actor, id uuid.UUID, newStart time.Time) (*repo.Appointment, error) {
	old, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canManage(ctx, actor, old, true); err != nil {
		return nil, err
	}
	if old.Status != repo.AppointmentBooked {
		return nil, ErrNotReschedulable
	}

	slot, err := s.findSlot(ctx, old.DoctorID, old.EstablishmentID, newStart)
	if err != nil {
		return nil, err
	}

	next := &repo.Appointment{
		PatientID:       old.PatientID,
		DoctorID:        old.DoctorID,
		EstablishmentID: old.EstablishmentID,
		StartTime:       slot.Start.UTC(),
		EndTime:         slot.End.UTC(),
		Reason:          old.Reason,
		ConsultationFee: slot.Fee,
	}
	if err := s.store.RescheduleAppointment(ctx, old.ID, next); err != nil {
		if errors.Is(err, repo.ErrStale) {
			return nil, ErrNotReschedulable
		}
		if c := bookingConflict(err); c != nil {
			return nil, c
		}
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}

	previous := old.StartTime
	s.publish(ctx, events.SubjectAppointmentRescheduled, next, actor.ID, "", &previous)
	return next, nil
}

// Cancel is open to the patient, the doctor, the establishment owner and
// admins.
func (s *appointmentService) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if err := validation.Var("reason", reason, "max=500"); err != nil {
		return ErrReasonTooLong
	}

	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != repo.RoleAdmin {
		if err := s.canManage(ctx, actor, a, true); err != nil {
			return err
		}
	}
	if a.Status != repo.AppointmentBooked {
		return ErrNotCancellable
	}

	if err := s.store.CancelAppointment(ctx, a.ID, actor.ID, reason); err != nil {
		if errors.Is(err, repo.ErrStale) {
			return ErrNotCancellable
		}
		return fmt.Errorf("cancel appointment: %w", err)
	}

	s.publish(ctx, events.SubjectAppointmentCancelled, a, actor.ID, reason, nil)
	return nil
}

func (s *appointmentService) Complete(ctx context.Context, actor Actor, id uuid.UUID) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.canManage(ctx, actor, a, false); err != nil {
		return err
	}
	if a.Status != repo.AppointmentBooked {
		return ErrNotCompletable
	}
	if s.now().Before(a.StartTime) {
		return ErrTooEarly
	}

	if err := s.store.CompleteAppointment(ctx, a.ID); err != nil {
		if errors.Is(err, repo.ErrStale) {
			return ErrNotCompletable
		}
		return fmt.Errorf("complete appointment: %w", err)
	}

	s.publish(ctx, events.SubjectAppointmentCompleted, a, actor.ID, "", nil)
	return nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (s *appointmentService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*repo.Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == repo.RoleAdmin {
		return a, nil
	}
	if err := s.canManage(ctx, actor, a, true); err != nil {
		if errors.Is(err, ErrForbidden) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func validStatus(status string) bool {
	switch status {
	case "", repo.AppointmentBooked, repo.AppointmentCancelled, repo.AppointmentCompleted, repo.AppointmentRescheduled:
		return true
	}
	return false
}

func (s *appointmentService) list(ctx context.Context, f repo.AppointmentFilter, q ListQuery) (pagination.Response[repo.Appointment], error) {
	if !validStatus(q.Status) {
		return pagination.Response[repo.Appointment]{}, ErrInvalidStatus
	}
	f.Status, f.From, f.To = q.Status, q.From, q.To

	rows, total, err := s.store.ListAppointments(ctx, f, q.Page.Limit, q.Page.Offset())
	if err != nil {
		return pagination.Response[repo.Appointment]{}, fmt.Errorf("list appointments: %w", err)
	}
	return pagination.NewResponse(rows, total, q.Page), nil
}

func (s *appointmentService) ListForPatient(ctx context.Context, patientID uuid.UUID, q ListQuery) (pagination.Response[repo.Appointment], error) {
	return s.list(ctx, repo.AppointmentFilter{PatientID: &patientID}, q)
}

func (s *appointmentService) ListForDoctor(ctx context.Context, doctorID uuid.UUID, q ListQuery) (pagination.Response[repo.Appointment], error) {
	return s.list(ctx, repo.AppointmentFilter{DoctorID: &doctorID}, q)
}

func (s *appointmentService) ListForHospital(ctx context.Context, ownerID uuid.UUID, q ListQuery) (pagination.Response[repo.Appointment], error) {
	return s.list(ctx, repo.AppointmentFilter{OwnerID: &ownerID}, q)
}

func (s *appointmentService) ListAll(ctx context.Context, q ListQuery) (pagination.Response[repo.Appointment], error) {
	return s.list(ctx, repo.AppointmentFilter{}, q)
}
