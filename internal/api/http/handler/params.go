package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/pkg/token"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

func currentUser(c fiber.Ctx) (*token.Claims, bool) {
	claims, ok := token.ClaimsFromFiber(c)
	if !ok || claims.UserID == uuid.Nil {
		return nil, false
	}
	return claims, true
}

func pathID(c fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// optionalID parses raw into a UUID pointer; empty input yields nil.
func optionalID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// optionalTime parses an RFC 3339 timestamp; empty input yields nil.
func optionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// bindError answers a failed Bind. Tag failures from the struct validator are
// reported field by field; anything else is a malformed body.
func bindError(c fiber.Ctx, err error) error {
	var verr validation.Errors
	if errors.As(err, &verr) {
		return badRequest(c, verr.Error())
	}
	return badRequest(c, "invalid request body")
}
