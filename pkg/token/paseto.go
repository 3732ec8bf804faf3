package token

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

type pasetoCodec struct {
	keys     PasetoKeys
	issuer   string
	audience string
}

func (p *pasetoCodec) encode(c *Claims) (string, error) {
	tok := paseto.NewToken()
	tok.SetIssuer(c.Issuer)
	tok.SetAudience(c.Audience)
	tok.SetJti(c.TokenID)
	tok.SetIssuedAt(c.IssuedAt)
	tok.SetNotBefore(c.NotBefore)
	tok.SetExpiration(c.ExpiresAt)
	tok.SetSubject(c.UserID.String())

	tok.SetString("typ", string(c.Type))
	tok.SetString("uid", c.UserID.String())
	tok.SetString("sid", c.SessionID.String())
	tok.SetString("role", c.Role)

	switch p.keys.Mode {
	case ModeLocal:
		if p.keys.Symmetric == nil {
			return "", ErrConfig{Msg: "missing symmetric key"}
		}
		return tok.V4Encrypt(*p.keys.Symmetric, nil), nil
	case ModePublic:
		if p.keys.Secret == nil {
			return "", ErrConfig{Msg: "missing secret key"}
		}
		return tok.V4Sign(*p.keys.Secret, nil), nil
	default:
		return "", ErrConfig{Msg: "unknown mode"}
	}
}

func (p *pasetoCodec) decode(tokenStr string) (*Claims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.IssuedBy(p.issuer))
	parser.AddRule(paseto.ForAudience(p.audience))
	parser.AddRule(paseto.ValidAt(time.Now()))

	var (
		tok *paseto.Token
		err error
	)
	switch p.keys.Mode {
	case ModeLocal:
		if p.keys.Symmetric == nil {
			return nil, ErrConfig{Msg: "missing symmetric key"}
		}
		tok, err = parser.ParseV4Local(*p.keys.Symmetric, tokenStr, nil)
	case ModePublic:
		if p.keys.Public == nil {
			return nil, ErrConfig{Msg: "missing public key"}
		}
		tok, err = parser.ParseV4Public(*p.keys.Public, tokenStr, nil)
	default:
		return nil, ErrConfig{Msg: "unknown mode"}
	}
	if err != nil {
		return nil, err
	}

	return extractPasetoClaims(tok, p.issuer, p.audience)
}

func extractPasetoClaims(tok *paseto.Token, iss, aud string) (*Claims, error) {
	jti, err := tok.GetJti()
	if err != nil {
		return nil, err
	}
	iat, err := tok.GetIssuedAt()
	if err != nil {
		return nil, err
	}
	nbf, err := tok.GetNotBefore()
	if err != nil {
		return nil, err
	}
	exp, err := tok.GetExpiration()
	if err != nil {
		return nil, err
	}

	out := &Claims{
		Issuer:    iss,
		Audience:  aud,
		TokenID:   jti,
		IssuedAt:  iat,
		NotBefore: nbf,
		ExpiresAt: exp,
	}

	typ, err := tok.GetString("typ")
	if err != nil {
		return nil, err
	}
	out.Type = TokenType(typ)

	if out.Role, err = tok.GetString("role"); err != nil {
		return nil, err
	}

	uidStr, err := tok.GetString("uid")
	if err != nil {
		return nil, err
	}
	if out.UserID, err = uuid.Parse(uidStr); err != nil {
		return nil, err
	}

	sidStr, err := tok.GetString("sid")
	if err != nil {
		return nil, err
	}
	if out.SessionID, err = uuid.Parse(sidStr); err != nil {
		return nil, err
	}

	return out, nil
}
