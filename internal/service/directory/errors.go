package directory

import "errors"

var (
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrHospitalNotFound = errors.New("hospital not found")
)
