package establishment

import "errors"

var (
	ErrNotFound          = errors.New("establishment not found")
	ErrTimingNotFound    = errors.New("timing not found")
	ErrForbidden         = errors.New("only the owner can manage this establishment")
	ErrInactive          = errors.New("establishment is inactive")
	ErrInvalidTime       = errors.New("times must be HH:MM")
	ErrInvalidTimeRange  = errors.New("end_time must be after start_time")
	ErrInvalidDay        = errors.New("day_of_week must be 0..6")
	ErrInvalidDuration   = errors.New("slot_duration_minutes must be 5..240")
	ErrInvalidInput      = errors.New("invalid establishment input")
	ErrDoctorNotEligible = errors.New("doctor is not approved")
	ErrTimingOverlap     = errors.New("timing overlaps another timing of the doctor")
)
