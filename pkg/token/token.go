// Package token issues and verifies access/refresh tokens as PASETO v4 or HS256 JWT.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/healthmarket_backend/config"
)

// codec is one wire format.
type codec interface {
	encode(c *Claims) (string, error)
	decode(tokenStr string) (*Claims, error)
}

type Config struct {
	Issuer   string
	Audience string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Manager struct {
	cfg   Config
	codec codec
}

func newManager(cfg Config, c codec) (*Manager, error) {
	if cfg.Issuer == "" {
		return nil, ErrConfig{Msg: "Issuer is required"}
	}
	if cfg.Audience == "" {
		return nil, ErrConfig{Msg: "Audience is required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &Manager{cfg: cfg, codec: c}, nil
}

// NewPaseto builds a v4.local or v4.public manager depending on keys.Mode.
func NewPaseto(cfg Config, keys PasetoKeys) (*Manager, error) {
	return newManager(cfg, &pasetoCodec{keys: keys, issuer: cfg.Issuer, audience: cfg.Audience})
}

// NewJWT builds an HS256 manager. The secret must be at least 32 bytes.
func NewJWT(cfg Config, secret []byte) (*Manager, error) {
	if len(secret) < 32 {
		return nil, ErrConfig{Msg: "jwt secret must be at least 32 bytes"}
	}
	return newManager(cfg, &jwtCodec{secret: secret, issuer: cfg.Issuer, audience: cfg.Audience})
}

// NewFromConfig picks the format configured under authentication.token.
func NewFromConfig(cfg *config.Config) (*Manager, error) {
	t := cfg.Authentication.Token
	mc := Config{
		Issuer:     t.Issuer,
		Audience:   t.Audience,
		AccessTTL:  t.AccessTTL(),
		RefreshTTL: t.RefreshTTL(),
	}

	switch strings.ToLower(t.Format) {
	case config.TokenFormatPaseto:
		keys, err := LoadPasetoKeys(KeyStrings{
			Mode:         PasetoMode(t.Paseto.Mode),
			SymmetricHex: t.Paseto.LocalKeyHex,
			SecretHex:    t.Paseto.SecretKeyHex,
			PublicHex:    t.Paseto.PublicKeyHex,
		})
		if err != nil {
			return nil, err
		}
		return NewPaseto(mc, keys)
	case config.TokenFormatJWT, "":
		return NewJWT(mc, []byte(t.JWTSecret))
	default:
		return nil, ErrConfig{Msg: "unknown token format " + t.Format}
	}
}

func (m *Manager) AccessTTL() time.Duration  { return m.cfg.AccessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.cfg.RefreshTTL }

func (m *Manager) IssueAccess(userID, sessionID uuid.UUID, role string) (string, error) {
	return m.issue(TokenTypeAccess, userID, sessionID, role, m.cfg.AccessTTL)
}

func (m *Manager) IssueRefresh(userID, sessionID uuid.UUID, role string) (string, error) {
	return m.issue(TokenTypeRefresh, userID, sessionID, role, m.cfg.RefreshTTL)
}

// Verify checks signature, issuer, audience and time bounds.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	c, err := m.codec.decode(tokenStr)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	if c.UserID == uuid.Nil || c.SessionID == uuid.Nil {
		return nil, ErrInvalidToken{Err: ErrConfig{Msg: "missing uid or sid"}}
	}
	return c, nil
}

// VerifyType is Verify plus a token type check.
func (m *Manager) VerifyType(tokenStr string, want TokenType) (*Claims, error) {
	c, err := m.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if c.Type != want {
		return nil, ErrWrongTokenType
	}
	return c, nil
}

func (m *Manager) issue(tt TokenType, userID, sessionID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now().Truncate(time.Second)
	return m.codec.encode(&Claims{
		Type:      tt,
		UserID:    userID,
		SessionID: sessionID,
		Role:      role,
		Issuer:    m.cfg.Issuer,
		Audience:  m.cfg.Audience,
		IssuedAt:  now,
		NotBefore: now,
		ExpiresAt: now.Add(ttl),
		TokenID:   randHex(16),
	})
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
