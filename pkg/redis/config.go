package redis

import (
	"time"

	"github.com/Alijeyrad/healthmarket_backend/config"
)

// Config holds Redis connection settings
type Config struct {
	Addr     string
	DB       int
	Username string
	Password string

	PoolSize     int
	MinIdleConns int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromCentralConfig converts central config.RedisConfig, filling zero values with defaults.
func FromCentralConfig(c config.RedisConfig) Config {
	return Config{
		Addr:         c.Addr,
		DB:           c.DB,
		Username:     c.Username,
		Password:     c.Password,
		PoolSize:     orDefault(c.PoolSize, 10),
		MinIdleConns: orDefault(c.MinIdleConns, 2),
		DialTimeout:  seconds(c.DialTimeoutSeconds, 5),
		ReadTimeout:  seconds(c.ReadTimeoutSeconds, 3),
		WriteTimeout: seconds(c.WriteTimeoutSeconds, 3),
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func seconds(v, def int) time.Duration {
	return time.Duration(orDefault(v, def)) * time.Second
}
