package feedback

import "errors"

var (
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrMessageTooLong      = errors.New("message must be at most 2000 characters")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrNotCompleted        = errors.New("feedback is accepted for completed appointments only")
	ErrAlreadySubmitted    = errors.New("feedback already submitted for this appointment")
	ErrUnknownQuestion     = errors.New("answers reference an unknown question")
)
