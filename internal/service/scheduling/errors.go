package scheduling

import "errors"

var (
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD")
	ErrPastDate         = errors.New("date is in the past")
	ErrDateTooFar       = errors.New("date is beyond the booking window")
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrSlotNotAvailable = errors.New("slot is not available")
)
