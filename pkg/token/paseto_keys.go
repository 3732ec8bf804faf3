package token

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

type PasetoMode string

const (
	ModeLocal  PasetoMode = "local"  // v4.local (encrypted)
	ModePublic PasetoMode = "public" // v4.public (signed)
)

// PasetoKeys holds the v4 key material for one mode.
type PasetoKeys struct {
	Mode PasetoMode

	// v4.local
	Symmetric *paseto.V4SymmetricKey

	// v4.public
	Secret *paseto.V4AsymmetricSecretKey
	Public *paseto.V4AsymmetricPublicKey
}

type KeyStrings struct {
	Mode PasetoMode

	SymmetricHex string

	SecretHex string
	PublicHex string
}

func LoadPasetoKeys(in KeyStrings) (PasetoKeys, error) {
	switch in.Mode {
	case ModeLocal:
		hex := strings.TrimSpace(in.SymmetricHex)
		if hex == "" {
			return PasetoKeys{}, ErrConfig{Msg: "ModeLocal requires SymmetricHex"}
		}
		k, err := paseto.V4SymmetricKeyFromHex(hex)
		if err != nil {
			return PasetoKeys{}, ErrConfig{Msg: "invalid symmetric key hex: " + err.Error()}
		}
		return PasetoKeys{Mode: ModeLocal, Symmetric: &k}, nil

	case ModePublic:
		secHex := strings.TrimSpace(in.SecretHex)
		pubHex := strings.TrimSpace(in.PublicHex)

		// Secret alone derives the public key; public alone is verify-only.
		var out PasetoKeys
		out.Mode = ModePublic

		if secHex != "" {
			sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secHex)
			if err != nil {
				return PasetoKeys{}, ErrConfig{Msg: "invalid secret key hex: " + err.Error()}
			}
			out.Secret = &sk
			pk := sk.Public()
			out.Public = &pk
		}

		if pubHex != "" {
			pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(pubHex)
			if err != nil {
				return PasetoKeys{}, ErrConfig{Msg: "invalid public key hex: " + err.Error()}
			}
			out.Public = &pk
		}

		if out.Public == nil && out.Secret == nil {
			return PasetoKeys{}, ErrConfig{Msg: "ModePublic requires SecretHex and/or PublicHex"}
		}
		return out, nil

	default:
		return PasetoKeys{}, ErrConfig{Msg: "unknown mode (use local|public)"}
	}
}

func NewLocalKeys() PasetoKeys {
	k := paseto.NewV4SymmetricKey()
	return PasetoKeys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() PasetoKeys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return PasetoKeys{Mode: ModePublic, Secret: &sk, Public: &pk}
}
