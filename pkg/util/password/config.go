package password

import "github.com/Alijeyrad/healthmarket_backend/config"

// Config holds Argon2id password hashing parameters
type Config struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// LowMemoryMode caps memory at 32 MiB for constrained environments
	LowMemoryMode bool
}

// ToParams fills zero fields with DefaultConfig values.
func (c Config) ToParams() Params {
	d := DefaultConfig()
	p := Params{
		Memory:      pick(c.MemoryKiB, d.MemoryKiB),
		Iterations:  pick(c.Iterations, d.Iterations),
		Parallelism: c.Parallelism,
		SaltLength:  pick(c.SaltLength, d.SaltLength),
		KeyLength:   pick(c.KeyLength, d.KeyLength),
	}
	if p.Parallelism == 0 {
		p.Parallelism = d.Parallelism
	}
	if c.LowMemoryMode && p.Memory > 32*1024 {
		p.Memory = 32 * 1024
	}
	return p
}

func pick(v, def uint32) uint32 {
	if v == 0 {
		return def
	}
	return v
}

// DefaultConfig returns OWASP-recommended defaults for password hashing
func DefaultConfig() Config {
	return Config{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// FromCentralConfig converts central config.PasswordConfig to package Config
func FromCentralConfig(c config.PasswordConfig) Config {
	return Config{
		MemoryKiB:     c.MemoryKiB,
		Iterations:    c.Iterations,
		Parallelism:   c.Parallelism,
		SaltLength:    c.SaltLength,
		KeyLength:     c.KeyLength,
		LowMemoryMode: c.LowMemoryMode,
	}
}
