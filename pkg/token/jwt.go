package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type jwtClaims struct {
	Type      string `json:"typ"`
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type jwtCodec struct {
	secret   []byte
	issuer   string
	audience string
}

func (j *jwtCodec) encode(c *Claims) (string, error) {
	claims := jwtClaims{
		Type:      string(c.Type),
		UserID:    c.UserID.String(),
		SessionID: c.SessionID.String(),
		Role:      c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.Issuer,
			Subject:   c.UserID.String(),
			Audience:  jwt.ClaimStrings{c.Audience},
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
			NotBefore: jwt.NewNumericDate(c.NotBefore),
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ID:        c.TokenID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

func (j *jwtCodec) decode(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	jc, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("unexpected claims type %T", parsed.Claims)
	}

	out := &Claims{
		Type:     TokenType(jc.Type),
		Role:     jc.Role,
		Issuer:   jc.Issuer,
		Audience: j.audience,
		TokenID:  jc.ID,
	}
	if jc.IssuedAt != nil {
		out.IssuedAt = jc.IssuedAt.Time
	}
	if jc.NotBefore != nil {
		out.NotBefore = jc.NotBefore.Time
	}
	out.ExpiresAt = jc.ExpiresAt.Time

	if out.UserID, err = uuid.Parse(jc.UserID); err != nil {
		return nil, err
	}
	if out.SessionID, err = uuid.Parse(jc.SessionID); err != nil {
		return nil, err
	}
	return out, nil
}
