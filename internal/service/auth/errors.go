package auth

import "errors"

var (
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidRole        = errors.New("role must be patient, doctor or hospital")
	ErrRoleMismatch       = errors.New("phone number is registered with a different role")
	ErrAccountBlocked     = errors.New("account is blocked")
	ErrOTPCooldown        = errors.New("an OTP was sent recently, wait before requesting another")
	ErrOTPExpired         = errors.New("OTP has expired or does not exist")
	ErrOTPInvalid         = errors.New("OTP code is incorrect")
	ErrOTPMaxAttempts     = errors.New("too many incorrect OTP attempts")
	ErrInvalidCredentials = errors.New("phone or password is incorrect")
	ErrAccountLocked      = errors.New("account temporarily locked due to repeated login failures")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPhoneTaken         = errors.New("phone number already registered")
)
