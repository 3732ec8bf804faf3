package profile

import "errors"

var (
	ErrNotFound       = errors.New("profile not found")
	ErrInvalidSection = errors.New("unknown profile section")
	ErrInvalidField   = errors.New("invalid field")
	ErrStepOutOfOrder = errors.New("previous profile sections must be completed first")
)
