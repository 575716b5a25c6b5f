package guardrails

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"finassist/pkg/errors"
)

const redisKeyPrefix = "finassist:guardrails:"

// RedisLimiter keeps per-session request timestamps in Redis sorted sets so
// that several instances share one view of every session.
//
// Layout:
//
//	finassist:guardrails:session:<id>  ZSET request-id -> unix millis
//	finassist:guardrails:sessions      ZSET session-id -> last request millis
type RedisLimiter struct {
	client  *redis.Client
	limits  Limits
	reserve *redis.Script
	now     func() time.Time
}

// KEYS[1] session set, KEYS[2] session index.
// ARGV now, hour cutoff, minute cutoff (millis), per-minute, per-hour,
// request id, session id, ttl (millis).
// Returns 0 when the request was counted, 1 over the minute limit, 2 over
// the hour limit.
const luaReserveScript = `
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])

local minute = redis.call('ZCOUNT', KEYS[1], '(' .. ARGV[3], '+inf')
if minute >= tonumber(ARGV[4]) then
    return 1
end
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[5]) then
    return 2
end

redis.call('ZADD', KEYS[1], ARGV[1], ARGV[6])
redis.call('PEXPIRE', KEYS[1], ARGV[8])
redis.call('ZADD', KEYS[2], ARGV[1], ARGV[7])
return 0
`

// NewRedisLimiter creates a Redis-backed session limiter. A nil clock uses time.Now.
func NewRedisLimiter(client *redis.Client, limits Limits, now func() time.Time) *RedisLimiter {
	if now == nil {
		now = time.Now
	}
	return &RedisLimiter{
		client:  client,
		limits:  limits,
		reserve: redis.NewScript(luaReserveScript),
		now:     now,
	}
}

var _ SessionLimiter = (*RedisLimiter)(nil)

func sessionKey(sessionID string) string {
	return redisKeyPrefix + "session:" + sessionID
}

func indexKey() string {
	return redisKeyPrefix + "sessions"
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// after formats an exclusive lower bound for ZCOUNT.
func after(t time.Time) string {
	return "(" + millis(t)
}

func (r *RedisLimiter) Check(ctx context.Context, sessionID string) error {
	now := r.now()
	key := sessionKey(sessionID)

	var minute, hour *redis.IntCmd
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", millis(now.Add(-hourWindow)))
		minute = p.ZCount(ctx, key, after(now.Add(-minuteWindow)), "+inf")
		hour = p.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return errors.Wrapf(errors.ErrUnavailable, "rate limit check: %v", err)
	}

	if int(minute.Val()) >= r.limits.PerMinute {
		return &LimitError{SessionID: sessionID, Window: WindowMinute, Limit: r.limits.PerMinute}
	}
	if int(hour.Val()) >= r.limits.PerHour {
		return &LimitError{SessionID: sessionID, Window: WindowHour, Limit: r.limits.PerHour}
	}
	return nil
}

func (r *RedisLimiter) Reserve(ctx context.Context, sessionID string) (ReleaseFunc, error) {
	now := r.now()
	key := sessionKey(sessionID)
	member := uuid.NewString()

	result, err := r.reserve.Run(ctx, r.client, []string{key, indexKey()},
		now.UnixMilli(),
		now.Add(-hourWindow).UnixMilli(),
		now.Add(-minuteWindow).UnixMilli(),
		r.limits.PerMinute,
		r.limits.PerHour,
		member,
		sessionID,
		hourWindow.Milliseconds(),
	).Int()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "rate limit reserve: %v", err)
	}

	switch result {
	case 1:
		return nil, &LimitError{SessionID: sessionID, Window: WindowMinute, Limit: r.limits.PerMinute}
	case 2:
		return nil, &LimitError{SessionID: sessionID, Window: WindowHour, Limit: r.limits.PerHour}
	}

	return func(ctx context.Context) error {
		if err := r.client.ZRem(ctx, key, member).Err(); err != nil {
			return errors.Wrapf(errors.ErrUnavailable, "rate limit release: %v", err)
		}
		return nil
	}, nil
}

func (r *RedisLimiter) Record(ctx context.Context, sessionID string) error {
	now := r.now()
	score := float64(now.UnixMilli())
	key := sessionKey(sessionID)

	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, redis.Z{Score: score, Member: uuid.NewString()})
		p.Expire(ctx, key, hourWindow)
		p.ZAdd(ctx, indexKey(), redis.Z{Score: score, Member: sessionID})
		return nil
	})
	if err != nil {
		return errors.Wrapf(errors.ErrUnavailable, "rate limit record: %v", err)
	}
	return nil
}

func (r *RedisLimiter) Usage(ctx context.Context, sessionID string) (SessionUsage, error) {
	now := r.now()
	key := sessionKey(sessionID)

	var minute, hour *redis.IntCmd
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", millis(now.Add(-hourWindow)))
		minute = p.ZCount(ctx, key, after(now.Add(-minuteWindow)), "+inf")
		hour = p.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return SessionUsage{}, errors.Wrapf(errors.ErrUnavailable, "session usage: %v", err)
	}

	return SessionUsage{
		SessionID:  sessionID,
		Total:      int(hour.Val()),
		LastHour:   int(hour.Val()),
		LastMinute: int(minute.Val()),
	}, nil
}

func (r *RedisLimiter) Totals(ctx context.Context) (Totals, error) {
	now := r.now()
	cutoff := millis(now.Add(-hourWindow))

	if err := r.client.ZRemRangeByScore(ctx, indexKey(), "-inf", cutoff).Err(); err != nil {
		return Totals{}, errors.Wrapf(errors.ErrUnavailable, "prune session index: %v", err)
	}
	ids, err := r.client.ZRange(ctx, indexKey(), 0, -1).Result()
	if err != nil {
		return Totals{}, errors.Wrapf(errors.ErrUnavailable, "list sessions: %v", err)
	}

	var (
		cards  = make([]*redis.IntCmd, len(ids))
		active *redis.IntCmd
	)
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, id := range ids {
			p.ZRemRangeByScore(ctx, sessionKey(id), "-inf", cutoff)
			cards[i] = p.ZCard(ctx, sessionKey(id))
		}
		active = p.ZCount(ctx, indexKey(), after(now.Add(-activeWindow)), "+inf")
		return nil
	})
	if err != nil {
		return Totals{}, errors.Wrapf(errors.ErrUnavailable, "session totals: %v", err)
	}

	t := Totals{ActiveSessions: int(active.Val())}
	for _, c := range cards {
		if n := int(c.Val()); n > 0 {
			t.Sessions++
			t.Requests += n
		}
	}
	return t, nil
}

func (r *RedisLimiter) Reset(ctx context.Context, sessionID string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, sessionKey(sessionID))
		p.ZRem(ctx, indexKey(), sessionID)
		return nil
	})
	if err != nil {
		return errors.Wrapf(errors.ErrUnavailable, "rate limit reset: %v", err)
	}
	return nil
}
