package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPThrottle caps how many passcodes may be issued to one mobile number
// within a window.
type OTPThrottle interface {
	Allow(ctx context.Context, mobile string) (bool, error)
}

type redisOTPThrottle struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisOTPThrottle(rdb *redis.Client, limit int, window time.Duration) OTPThrottle {
	return &redisOTPThrottle{rdb: rdb, limit: int64(limit), window: window}
}

// Allow counts the request in a fixed window that starts with the first
// request for the number. The window is created with its expiry in the same
// MULTI as the increment, so a counter never outlives its window.
func (t *redisOTPThrottle) Allow(ctx context.Context, mobile string) (bool, error) {
	key := "otp:send:" + mobile

	var count *redis.IntCmd
	_, err := t.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, t.window)
		count = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("otp throttle: %w", err)
	}
	return count.Val() <= t.limit, nil
}
