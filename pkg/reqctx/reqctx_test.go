package reqctx

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeClaims struct {
	uid, sid uuid.UUID
	role     string
}

func (f fakeClaims) GetUserID() uuid.UUID    { return f.uid }
func (f fakeClaims) GetSessionID() uuid.UUID { return f.sid }
func (f fakeClaims) GetRole() string         { return f.role }
func (f fakeClaims) GetTokenType() string    { return "access" }

func TestClaimsRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := UserIDFromContext(ctx)
	assert.False(t, ok)
	assert.Empty(t, RoleFromContext(ctx))

	uid := uuid.New()
	ctx = WithClaims(ctx, fakeClaims{uid: uid, role: "doctor"})

	got, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, uid, got)
	assert.Equal(t, "doctor", RoleFromContext(ctx))
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = WithRequestMeta(ctx, &RequestMeta{RequestID: "rid-1"})
	assert.Equal(t, "rid-1", RequestIDFromContext(ctx))
}
