package otp

import "github.com/Alijeyrad/healthmarket_backend/config"

// Config holds OTP generation settings
type Config struct {
	Length int
}

// Validate checks the configured length
func (c Config) Validate() error {
	if c.Length < MinLength || c.Length > MaxLength {
		return ErrInvalidLength
	}
	return nil
}

// FromCentralConfig converts central config.OTPConfig, defaulting to six digits.
func FromCentralConfig(c config.OTPConfig) Config {
	if c.Length == 0 {
		return Config{Length: DefaultLength}
	}
	return Config{Length: c.Length}
}
