// Package phone normalises user-entered phone numbers to E.164.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// Normalizer parses numbers, assuming defaultRegion when no country code is given.
type Normalizer struct {
	defaultRegion string
}

func NewNormalizer(defaultRegion string) *Normalizer {
	if defaultRegion == "" {
		defaultRegion = "IN"
	}
	return &Normalizer{defaultRegion: strings.ToUpper(defaultRegion)}
}

// E164 returns the canonical +CCNNNN form or ErrInvalidPhone.
func (n *Normalizer) E164(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}

	num, err := phonenumbers.Parse(raw, n.defaultRegion)
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
