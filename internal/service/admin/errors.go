package admin

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrNotVerifiable     = errors.New("only doctors and hospitals are verified")
	ErrProfileIncomplete = errors.New("profile has not completed onboarding")
	ErrInvalidDecision   = errors.New("status must be approved or rejected")
	ErrNoteRequired      = errors.New("a note is required when rejecting")
	ErrCannotBlockAdmin  = errors.New("admins cannot be blocked")
	ErrInvalidFilter     = errors.New("unknown role or status filter")
)
