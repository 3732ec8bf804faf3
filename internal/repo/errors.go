package repo

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("repo: not found")
	ErrConflict = errors.New("repo: conflict")
)

// Constraint names referenced by services.
const (
	ConstraintUserPhone           = "users_phone_key"
	ConstraintTimingOverlap       = "establishment_timings_no_overlap"
	ConstraintDoctorOverlap       = "appointments_doctor_no_overlap"
	ConstraintPatientStartBooked  = "appointments_patient_start_booked"
	ConstraintAppointmentFeedback = "appointment_feedback_appointment_key"
	ConstraintMasterKindCode      = "master_items_kind_code_key"
	ConstraintSessionDeviceLive   = "user_sessions_device_live_key"
)

const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
	pqForeignKey         = "23503"
)

// ConstraintError is a unique, exclusion or foreign key violation.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint %s violated: %v", e.Constraint, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool { return target == ErrConflict }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConstraint reports whether err violated the named constraint.
func IsConstraint(err error, name string) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Constraint == name
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqExclusionViolation, pqForeignKey:
			return &ConstraintError{Constraint: pqErr.Constraint, Err: err}
		}
	}
	return err
}
