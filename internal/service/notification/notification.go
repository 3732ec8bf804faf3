// Package notification turns domain events into in-app notifications and
// patient SMS, and serves each user's inbox.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/events"
	"github.com/Alijeyrad/healthmarket_backend/pkg/pagination"
)

// Notification types.
const (
	TypeAppointmentBooked      = "appointment_booked"
	TypeAppointmentRescheduled = "appointment_rescheduled"
	TypeAppointmentCancelled   = "appointment_cancelled"
	TypeAppointmentCompleted   = "appointment_completed"
	TypeProfileSubmitted       = "profile_submitted"
	TypeProfileVerified        = "profile_verified"
)

type Store interface {
	CreateNotifications(ctx context.Context, ns []repo.Notification) error
	ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit, offset int) ([]repo.Notification, int, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, recipientID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, recipientID, id uuid.UUID) error

	UserIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error)
	GetEstablishment(ctx context.Context, id uuid.UUID) (*repo.Establishment, error)
	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*repo.DoctorProfile, error)
}

// SMSSender delivers the appointment templates. *sms.Client satisfies it.
type SMSSender interface {
	AppointmentBooked(ctx context.Context, phone string, params map[string]string) error
	AppointmentCancelled(ctx context.Context, phone string, params map[string]string) error
}

type Service interface {
	// FanOut stores one notification per recipient of the event.
	FanOut(ctx context.Context, ev events.Event) (int, error)

	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, p pagination.Params) (pagination.Response[repo.Notification], error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type notificationService struct {
	store Store
	sms   SMSSender
	loc   *time.Location
}

// New builds the service. loc renders appointment times in messages.
func New(store Store, sms SMSSender, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &notificationService{store: store, sms: sms, loc: loc}
}

// ---------------------------------------------------------------------------
// Fan-out
// ---------------------------------------------------------------------------

type recipient struct {
	id   uuid.UUID
	role string
}

// recipients keeps the first occurrence of each user.
type recipients []recipient

func (r *recipients) add(id uuid.UUID, role string) {
	if id == uuid.Nil {
		return
	}
	for _, x := range *r {
		if x.id == id {
			return
		}
	}
	*r = append(*r, recipient{id: id, role: role})
}

func (s *notificationService) FanOut(ctx context.Context, ev events.Event) (int, error) {
	switch ev.Subject {
	case events.SubjectAppointmentBooked, events.SubjectAppointmentRescheduled,
		events.SubjectAppointmentCancelled, events.SubjectAppointmentCompleted:
		var p events.AppointmentEvent
		if err := ev.Decode(&p); err != nil {
			return 0, fmt.Errorf("decode %s: %w", ev.Subject, err)
		}
		return s.appointment(ctx, ev.Subject, p)

	case events.SubjectProfileCompleted, events.SubjectProfileVerified:
		var p events.ProfileEvent
		if err := ev.Decode(&p); err != nil {
			return 0, fmt.Errorf("decode %s: %w", ev.Subject, err)
		}
		return s.profile(ctx, ev.Subject, p)
	}
	return 0, ErrUnknownEvent
}

func (s *notificationService) appointment(ctx context.Context, subject string, p events.AppointmentEvent) (int, error) {
	var to recipients
	to.add(p.PatientID, repo.RolePatient)
	to.add(p.DoctorID, repo.RoleDoctor)

	est, err := s.store.GetEstablishment(ctx, p.EstablishmentID)
	switch {
	case err == nil && est.Kind == repo.EstablishmentHospital:
		to.add(est.OwnerID, repo.RoleHospital)
	case err != nil && !repo.IsNotFound(err):
		return 0, fmt.Errorf("get establishment: %w", err)
	}

	admins, err := s.store.UserIDsByRole(ctx, repo.RoleAdmin)
	if err != nil {
		return 0, fmt.Errorf("list admins: %w", err)
	}
	for _, id := range admins {
		to.add(id, repo.RoleAdmin)
	}

	doctorName := s.doctorName(ctx, p.DoctorID)
	when := p.StartTime.In(s.loc).Format("02 Jan 2006 15:04")

	var typ, title, body string
	switch subject {
	case events.SubjectAppointmentBooked:
		typ, title = TypeAppointmentBooked, "Appointment booked"
		body = fmt.Sprintf("Appointment with %s on %s is confirmed.", doctorName, when)
	case events.SubjectAppointmentRescheduled:
		typ, title = TypeAppointmentRescheduled, "Appointment rescheduled"
		body = fmt.Sprintf("Appointment with %s moved to %s.", doctorName, when)
	case events.SubjectAppointmentCancelled:
		typ, title = TypeAppointmentCancelled, "Appointment cancelled"
		body = fmt.Sprintf("Appointment with %s on %s was cancelled.", doctorName, when)
		if p.Reason != "" {
			body += " Reason: " + p.Reason
		}
	default:
		typ, title = TypeAppointmentCompleted, "Appointment completed"
		body = fmt.Sprintf("Appointment with %s on %s is complete. Share your feedback.", doctorName, when)
	}

	data := repo.JSONMap{
		"appointment_id":   p.AppointmentID.String(),
		"establishment_id": p.EstablishmentID.String(),
		"start_time":       p.StartTime.UTC().Format(time.RFC3339),
	}
	if p.PreviousStart != nil {
		data["previous_start"] = p.PreviousStart.UTC().Format(time.RFC3339)
	}

	n, err := s.insert(ctx, to, typ, title, body, data)
	if err != nil {
		return 0, err
	}

	if subject == events.SubjectAppointmentBooked || subject == events.SubjectAppointmentCancelled {
		s.textPatient(ctx, subject, p.PatientID, map[string]string{"doctor": doctorName, "time": when})
	}
	return n, nil
}

func (s *notificationService) profile(ctx context.Context, subject string, p events.ProfileEvent) (int, error) {
	var to recipients
	var typ, title, body string

	if subject == events.SubjectProfileCompleted {
		admins, err := s.store.UserIDsByRole(ctx, repo.RoleAdmin)
		if err != nil {
			return 0, fmt.Errorf("list admins: %w", err)
		}
		for _, id := range admins {
			to.add(id, repo.RoleAdmin)
		}
		typ, title = TypeProfileSubmitted, "Profile awaiting verification"
		body = fmt.Sprintf("A %s profile was submitted for verification.", p.Role)
	} else {
		to.add(p.UserID, p.Role)
		typ, title = TypeProfileVerified, "Profile "+p.Status
		body = fmt.Sprintf("Your profile was %s.", p.Status)
		if p.Note != "" {
			body += " " + p.Note
		}
	}

	data := repo.JSONMap{"user_id": p.UserID.String(), "role": p.Role, "status": p.Status}
	return s.insert(ctx, to, typ, title, body, data)
}

func (s *notificationService) insert(ctx context.Context, to recipients, typ, title, body string, data repo.JSONMap) (int, error) {
	if len(to) == 0 {
		return 0, nil
	}
	rows := make([]repo.Notification, 0, len(to))
	for _, r := range to {
		rows = append(rows, repo.Notification{
			RecipientID:   r.id,
			RecipientRole: r.role,
			Type:          typ,
			Title:         title,
			Body:          body,
			Data:          data,
		})
	}
	if err := s.store.CreateNotifications(ctx, rows); err != nil {
		return 0, fmt.Errorf("create notifications: %w", err)
	}
	return len(rows), nil
}

func (s *notificationService) doctorName(ctx context.Context, id uuid.UUID) string {
	p, err := s.store.GetDoctorProfile(ctx, id)
	if err != nil || p.FullName == "" {
		return "your doctor"
	}
	return "Dr. " + p.FullName
}

// textPatient is best effort; SMS failures never fail the fan-out.
func (s *notificationService) textPatient(ctx context.Context, subject string, patientID uuid.UUID, params map[string]string) {
	u, err := s.store.GetUser(ctx, patientID)
	if err != nil {
		slog.Warn("sms skipped: patient lookup failed", "patient_id", patientID, "error", err)
		return
	}
	if subject == events.SubjectAppointmentBooked {
		err = s.sms.AppointmentBooked(ctx, u.Phone, params)
	} else {
		err = s.sms.AppointmentCancelled(ctx, u.Phone, params)
	}
	if err != nil {
		slog.Warn("failed to send appointment sms", "patient_id", patientID, "subject", subject, "error", err)
	}
}

// ---------------------------------------------------------------------------
// Inbox
// ---------------------------------------------------------------------------

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, p pagination.Params) (pagination.Response[repo.Notification], error) {
	rows, total, err := s.store.ListNotifications(ctx, userID, unreadOnly, p.Limit, p.Offset())
	if err != nil {
		return pagination.Response[repo.Notification]{}, err
	}
	return pagination.NewResponse(rows, total, p), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.MarkRead(ctx, userID, id); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.DeleteNotification(ctx, userID, id); err != nil {
		if repo.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
