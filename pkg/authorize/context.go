package authorize

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/pkg/reqctx"
)

var (
	ErrNoSubjectInContext = errors.New("no subject found in context")
)

// SubjectFromContext extracts the GroupSubject (user ID) from the request claims.
func SubjectFromContext(ctx context.Context) (GroupSubject, error) {
	claims := reqctx.ClaimsFromContext(ctx)
	if claims == nil {
		return "", ErrNoSubjectInContext
	}
	userID := claims.GetUserID()
	if userID == uuid.Nil {
		return "", ErrNoSubjectInContext
	}
	return GroupSubject(userID.String()), nil
}

// EnforceFromContext checks the caller in ctx against resource/action in the sys domain.
func EnforceFromContext(ctx context.Context, auth IAuthorization, object Resource, action Action) error {
	subject, err := SubjectFromContext(ctx)
	if err != nil {
		return err
	}
	return auth.MustEnforce(ctx, subject, DomainSys, object, action)
}
