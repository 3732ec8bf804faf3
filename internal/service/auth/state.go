package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func redisKeyOTP(phone string) string { return "otp:" + phone }
func redisKeyOTPAttempts(phone string) string { return "otp:attempts:" + phone }
func redisKeyOTPCooldown(phone string) string { return "otp:cooldown:" + phone }
func redisKeySession(sid uuid.UUID) string { return "session:" + sid.String() }

// StateStore holds short-lived auth state: OTP hashes and live sessions.
type StateStore interface {
	// SaveOTP stores the code hash, overwriting any previous one, and resets
	// attempts. It returns false without writing while the cooldown is active.
	SaveOTP(ctx context.Context, phone, hash string, ttl, cooldown time.Duration) (bool, error)
	// TakeOTPAttempt counts one verification attempt and returns the pending
	// hash with the count including this attempt, in one transaction. It
	// returns ErrOTPExpired when no code is pending.
	TakeOTPAttempt(ctx context.Context, phone string) (hash string, attempts int, err error)
	ClearOTP(ctx context.Context, phone string) error

	PutSession(ctx context.Context, sid, userID uuid.UUID, ttl time.Duration) error
	SessionAlive(ctx context.Context, sid uuid.UUID) (bool, error)
	// ExtendSession resets the TTL; false if the session is gone.
	ExtendSession(ctx context.Context, sid uuid.UUID, ttl time.Duration) (bool, error)
	DropSessions(ctx context.Context, sids ...uuid.UUID) error
}

type redisState struct {
	rdb *redis.Client
}

func NewRedisState(rdb *redis.Client) StateStore {
	return &redisState{rdb: rdb}
}

func (s *redisState) SaveOTP(ctx context.Context, phone, hash string, ttl, cooldown time.Duration) (bool, error) {
	if cooldown > 0 {
		ok, err := s.rdb.SetNX(ctx, redisKeyOTPCooldown(phone), "1", cooldown).Result()
		if err != nil {
			return false, fmt.Errorf("redis set cooldown: %w", err)
		}
		if !ok {
			return false, nil
		}
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, redisKeyOTP(phone), hash, ttl)
	pipe.Set(ctx, redisKeyOTPAttempts(phone), 0, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis store otp: %w", err)
	}
	return true, nil
}

func (s *redisState) TakeOTPAttempt(ctx context.Context, phone string) (string, int, error) {
	pipe := s.rdb.TxPipeline()
	get := pipe.Get(ctx, redisKeyOTP(phone))
	incr := pipe.Incr(ctx, redisKeyOTPAttempts(phone))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return "", 0, fmt.Errorf("redis take otp attempt: %w", err)
	}

	hash, err := get.Result()
	if errors.Is(err, redis.Nil) {
		// the counter outlived the code; drop it so it does not linger without a TTL
		s.rdb.Del(ctx, redisKeyOTPAttempts(phone))
		return "", 0, ErrOTPExpired
	}
	if err != nil {
		return "", 0, fmt.Errorf("redis get otp: %w", err)
	}
	attempts, err := incr.Result()
	if err != nil {
		return "", 0, fmt.Errorf("redis incr attempts: %w", err)
	}
	return hash, int(attempts), nil
}

func (s *redisState) ClearOTP(ctx context.Context, phone string) error {
	return s.rdb.Del(ctx, redisKeyOTP(phone), redisKeyOTPAttempts(phone)).Err()
}

func (s *redisState) PutSession(ctx context.Context, sid, userID uuid.UUID, ttl time.Duration) error {
	return s.rdb.Set(ctx, redisKeySession(sid), userID.String(), ttl).Err()
}

func (s *redisState) SessionAlive(ctx context.Context, sid uuid.UUID) (bool, error) {
	n, err := s.rdb.Exists(ctx, redisKeySession(sid)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists session: %w", err)
	}
	return n > 0, nil
}

func (s *redisState) ExtendSession(ctx context.Context, sid uuid.UUID, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.Expire(ctx, redisKeySession(sid), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis expire session: %w", err)
	}
	return ok, nil
}

func (s *redisState) DropSessions(ctx context.Context, sids ...uuid.UUID) error {
	if len(sids) == 0 {
		return nil
	}
	keys := make([]string, len(sids))
	for i, sid := range sids {
		keys[i] = redisKeySession(sid)
	}
	return s.rdb.Del(ctx, keys...).Err()
}
