// Package queue hands pending trade signal ids from the decision engine
// to the execution worker over Redis, with a best-effort distributed lock
// guarding each signal against double execution.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	signalQueueKey  = "execution:pending_signals"
	lockKeyPrefix   = "execution:lock"
	blockingTimeout = 5 * time.Second
)

// RedisQueue is a Redis-backed FIFO of trade signal ids plus a per-signal
// mutual-exclusion lock. A Redis outage degrades the lock to an
// always-granted no-op (logged at Warn) rather than stalling execution —
// at-most-once then degrades to best-effort, not a hard stop.
type RedisQueue struct {
	rdb *redis.Client
}

// NewRedisQueue wraps an existing Redis client.
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb}
}

// Enqueue pushes a trade signal id onto the pending queue.
func (q *RedisQueue) Enqueue(ctx context.Context, id string) error {
	if err := q.rdb.LPush(ctx, signalQueueKey, id).Err(); err != nil {
		return fmt.Errorf("queue: enqueue %s: %w", id, err)
	}
	return nil
}

// DequeueBlocking blocks up to its internal timeout waiting for a signal
// id, returning ("", nil) on a timeout so callers can loop and re-check
// ctx.Err() / shutdown signals between waits.
func (q *RedisQueue) DequeueBlocking(ctx context.Context) (string, error) {
	result, err := q.rdb.BRPop(ctx, blockingTimeout, signalQueueKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("queue: dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) != 2 {
		return "", fmt.Errorf("queue: dequeue: unexpected reply shape %v", result)
	}
	return result[1], nil
}

// TryAcquireLock attempts to claim the execution lock for a signal id. It
// returns true (with no error) both when the lock is genuinely acquired
// and when Redis itself is unreachable — a degraded environment should
// not block a trade signal from executing, it should log loudly and let
// the caller's own idempotency checks (pending-status verification) carry
// the correctness burden instead.
func (q *RedisQueue) TryAcquireLock(ctx context.Context, signalID string, ttl time.Duration) (bool, error) {
	ok, err := q.rdb.SetNX(ctx, lockKey(signalID), "1", ttl).Result()
	if err != nil {
		log.Warn().Err(err).Str("signal_id", signalID).Msg("execution lock degraded to no-op, redis unreachable")
		return true, nil
	}
	return ok, nil
}

// ReleaseLock releases a previously-acquired execution lock. A failure here
// is logged, not returned: the lock's TTL bounds the blast radius even if
// the explicit release never lands.
func (q *RedisQueue) ReleaseLock(ctx context.Context, signalID string) {
	if err := q.rdb.Del(ctx, lockKey(signalID)).Err(); err != nil {
		log.Warn().Err(err).Str("signal_id", signalID).Msg("failed to release execution lock, ttl will expire it")
	}
}

func lockKey(signalID string) string {
	return fmt.Sprintf("%s:%s", lockKeyPrefix, signalID)
}
