package masterdata

import "errors"

var (
	ErrUnknownKind   = errors.New("unknown master data kind")
	ErrNotFound      = errors.New("master item not found")
	ErrInvalidInput  = errors.New("invalid master item")
	ErrInvalidParent = errors.New("parent does not exist or has the wrong kind")
	ErrDuplicateCode = errors.New("code already used for this kind")
)
