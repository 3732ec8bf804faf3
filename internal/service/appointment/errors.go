package appointment

import "errors"

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrForbidden         = errors.New("not allowed to act on this appointment")
	ErrSlotNotAvailable  = errors.New("time slot is not available for booking")
	ErrDuplicateBooking  = errors.New("you already have an appointment at this time")
	ErrDoctorUnavailable = errors.New("doctor is not accepting appointments")
	ErrNotCancellable    = errors.New("only booked appointments can be cancelled")
	ErrNotReschedulable  = errors.New("only booked appointments can be rescheduled")
	ErrNotCompletable    = errors.New("only booked appointments can be completed")
	ErrTooEarly          = errors.New("appointment has not started yet")
	ErrInvalidStatus     = errors.New("unknown appointment status")
	ErrReasonTooLong     = errors.New("reason must be at most 500 characters")
	ErrInvalidRequest    = errors.New("invalid booking request")
)
