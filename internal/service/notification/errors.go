package notification

import "errors"

var (
	ErrNotFound     = errors.New("notification not found")
	ErrUnknownEvent = errors.New("unknown event subject")
)
