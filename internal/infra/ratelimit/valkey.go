package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyLimiter counts requests per client in fixed one-minute windows shared
// by every replica.
type ValkeyLimiter struct {
	client valkey.Client
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewValkeyLimiter allows requestsPerMinute+burst requests per client and window.
func NewValkeyLimiter(client valkey.Client, prefix string, requestsPerMinute, burst int) *ValkeyLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &ValkeyLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(requestsPerMinute + burst),
		window: time.Minute,
		now:    time.Now,
	}
}

// Allow increments the client's counter for the current window. The TTL is
// (re)applied with EXPIRE NX in the same round trip, so a counter never
// outlives its window even when an earlier EXPIRE was lost.
func (l *ValkeyLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := l.windowKey(key, l.now())
	ttl := int64(l.window/time.Second) + 1
	results := l.client.DoMulti(ctx,
		l.client.B().Incr().Key(windowKey).Build(),
		l.client.B().Expire().Key(windowKey).Seconds(ttl).Nx().Build(),
	)
	count, err := results[0].AsInt64()
	if err != nil {
		return false, fmt.Errorf("increment rate counter: %w", err)
	}
	if err := results[1].Error(); err != nil {
		return false, fmt.Errorf("expire rate counter: %w", err)
	}
	return count <= l.limit, nil
}

func (l *ValkeyLimiter) windowKey(key string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, now.Unix()/int64(l.window/time.Second))
}
