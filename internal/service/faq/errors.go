package faq

import "errors"

var (
	ErrNotFound        = errors.New("faq not found")
	ErrInvalidAudience = errors.New("audience must be patient, doctor, hospital or all")
	ErrInvalidText     = errors.New("invalid faq text")
)
