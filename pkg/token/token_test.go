package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = Config{
	Issuer:     "healthmarket",
	Audience:   "healthmarket-api",
	AccessTTL:  time.Minute,
	RefreshTTL: time.Hour,
}

func managers(t *testing.T) map[string]*Manager {
	t.Helper()

	jwtMgr, err := NewJWT(testCfg, []byte(strings.Repeat("s", 32)))
	require.NoError(t, err)
	local, err := NewPaseto(testCfg, NewLocalKeys())
	require.NoError(t, err)
	public, err := NewPaseto(testCfg, NewPublicKeys())
	require.NoError(t, err)

	return map[string]*Manager{"jwt": jwtMgr, "paseto-local": local, "paseto-public": public}
}

func TestIssueAndVerify(t *testing.T) {
	for name, m := range managers(t) {
		t.Run(name, func(t *testing.T) {
			uid, sid := uuid.New(), uuid.New()

			access, err := m.IssueAccess(uid, sid, "doctor")
			require.NoError(t, err)

			c, err := m.VerifyType(access, TokenTypeAccess)
			require.NoError(t, err)
			assert.Equal(t, uid, c.UserID)
			assert.Equal(t, sid, c.SessionID)
			assert.Equal(t, "doctor", c.Role)
			assert.NotEmpty(t, c.TokenID)
			assert.False(t, c.IsExpired())

			refresh, err := m.IssueRefresh(uid, sid, "doctor")
			require.NoError(t, err)
			_, err = m.VerifyType(refresh, TokenTypeAccess)
			assert.ErrorIs(t, err, ErrWrongTokenType)
		})
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	a, err := NewJWT(testCfg, []byte(strings.Repeat("a", 32)))
	require.NoError(t, err)
	b, err := NewJWT(testCfg, []byte(strings.Repeat("b", 32)))
	require.NoError(t, err)

	tok, err := a.IssueAccess(uuid.New(), uuid.New(), "patient")
	require.NoError(t, err)

	_, err = b.Verify(tok)
	var invalid ErrInvalidToken
	assert.True(t, errors.As(err, &invalid))

	other := testCfg
	other.Audience = "someone-else"
	c, err := NewJWT(other, []byte(strings.Repeat("a", 32)))
	require.NoError(t, err)
	_, err = c.Verify(tok)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	cfg := testCfg
	cfg.AccessTTL = time.Nanosecond
	for _, m := range []func() (*Manager, error){
		func() (*Manager, error) { return NewJWT(cfg, []byte(strings.Repeat("x", 32))) },
		func() (*Manager, error) { return NewPaseto(cfg, NewLocalKeys()) },
	} {
		mgr, err := m()
		require.NoError(t, err)
		// issue truncates to the second, so the token is already past exp.
		tok, err := mgr.IssueAccess(uuid.New(), uuid.New(), "patient")
		require.NoError(t, err)
		time.Sleep(1100 * time.Millisecond)
		_, err = mgr.Verify(tok)
		assert.Error(t, err)
	}
}

func TestConfigErrors(t *testing.T) {
	_, err := NewJWT(testCfg, []byte("short"))
	assert.Error(t, err)

	_, err = NewPaseto(Config{Audience: "a"}, NewLocalKeys())
	assert.Error(t, err)

	_, err = LoadPasetoKeys(KeyStrings{Mode: ModeLocal})
	assert.Error(t, err)
}
