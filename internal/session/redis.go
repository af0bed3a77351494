package session

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gomodule/redigo/redis"
)

const redisKeyPrefix = "blink:sess:"

// RedisStore keeps session records in Redis with a server-side TTL, so
// sessions survive orchestrator restarts but still expire on schedule.
type RedisStore struct {
	pool *redis.Pool
	ttl  time.Duration
}

// NewRedisStore connects a pooled Redis Store at addr.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		pool: &redis.Pool{
			MaxIdle:     4,
			IdleTimeout: 240 * time.Second,
			Dial: func() (redis.Conn, error) {
				return redis.Dial("tcp", addr)
			},
			TestOnBorrow: func(c redis.Conn, t time.Time) error {
				if time.Since(t) < time.Minute {
					return nil
				}
				_, err := c.Do("PING")
				return err
			},
		},
		ttl: ttl,
	}
}

// Load fetches and decodes the record; Redis expiry makes stale keys
// vanish on their own, but the last-seen check still guards against a
// record written with a longer TTL by an older deployment.
func (s *RedisStore) Load(ctx context.Context, key Key) (*Context, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", redisKey(key)))
	if err == redis.ErrNil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var sess Context
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.Expired(time.Now(), s.ttl) {
		_, _ = conn.Do("DEL", redisKey(key))
		return nil, nil
	}
	return &sess, nil
}

// Save writes the record with the store's TTL as the key expiry.
func (s *RedisStore) Save(ctx context.Context, sess *Context) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("SET", redisKey(sess.Key()), data, "EX", int64(s.ttl.Seconds())); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Sweep is a no-op: Redis expires keys server-side.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.pool.Close()
}

func redisKey(key Key) string {
	return redisKeyPrefix + key.String()
}
