// Package events carries domain events between services and workers over
// NATS, or in-process when no NATS server is configured.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const prefix = "healthmarket."

// Subjects follow healthmarket.<entity>.<action>.
const (
	SubjectAppointmentBooked      = prefix + "appointment.booked"
	SubjectAppointmentRescheduled = prefix + "appointment.rescheduled"
	SubjectAppointmentCancelled   = prefix + "appointment.cancelled"
	SubjectAppointmentCompleted   = prefix + "appointment.completed"
	SubjectProfileCompleted       = prefix + "profile.completed"
	SubjectProfileVerified        = prefix + "profile.verified"

	SubjectAllAppointments = prefix + "appointment.*"
	SubjectAllProfiles     = prefix + "profile.*"
)

// Event is a received message.
type Event struct {
	Subject string
	Data    []byte
}

// Decode unmarshals the JSON payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Handler processes one event. Errors are logged by the bus, never redelivered.
type Handler func(ctx context.Context, ev Event) error

// Bus publishes JSON payloads and fans them out to subscribers.
type Bus interface {
	Publish(ctx context.Context, subject string, payload any) error
	Subscribe(subject string, h Handler) error
	Close() error
}

// AppointmentEvent is the payload of every appointment.* subject.
type AppointmentEvent struct {
	AppointmentID   uuid.UUID  `json:"appointment_id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	DoctorID        uuid.UUID  `json:"doctor_id"`
	EstablishmentID uuid.UUID  `json:"establishment_id"`
	StartTime       time.Time  `json:"start_time"`
	PreviousStart   *time.Time `json:"previous_start,omitempty"`
	ActorID         uuid.UUID  `json:"actor_id"`
	Reason          string     `json:"reason,omitempty"`
}

// ProfileEvent is the payload of profile.completed and profile.verified.
type ProfileEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	Status string    `json:"status,omitempty"` // pending, approved, rejected
	Note   string    `json:"note,omitempty"`
}
