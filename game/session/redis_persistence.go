package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wricardo/mcp-training/sokoban/game/service"
)

const (
	redisKeyPrefix = "session:"
	redisIndexKey  = "sessions"

	// DefaultRedisTTL is how long an untouched session survives in Redis
	DefaultRedisTTL = 24 * time.Hour
)

// RedisPersistence implements SessionPersistence on Redis. Each session is a
// JSON string under session:<id> with a TTL; the sessions set indexes IDs.
type RedisPersistence struct {
	client  *redis.Client
	codec   codec
	ttl     time.Duration
	timeout time.Duration
	logger  *log.Logger
}

var (
	_ SessionPersistence = (*RedisPersistence)(nil)
	_ ExistenceChecker   = (*RedisPersistence)(nil)
	_ Toucher            = (*RedisPersistence)(nil)
)

// RedisOptions configures a RedisPersistence
type RedisOptions struct {
	TTL     time.Duration
	Timeout time.Duration
	Logger  *log.Logger
}

// NewRedisPersistence connects to redisURL (redis://host:port/db) and verifies the connection
func NewRedisPersistence(ctx context.Context, redisURL string, configManager service.ConfigManager, opts RedisOptions) (*RedisPersistence, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rp := &RedisPersistence{
		client:  redis.NewClient(opt),
		codec:   codec{configs: configManager},
		ttl:     opts.TTL,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	if rp.ttl <= 0 {
		rp.ttl = DefaultRedisTTL
	}
	if rp.timeout <= 0 {
		rp.timeout = 5 * time.Second
	}
	if rp.logger == nil {
		rp.logger = log.New(io.Discard, "", 0)
	}

	if err := rp.Ping(ctx); err != nil {
		rp.client.Close()
		return nil, err
	}
	return rp, nil
}

// Ping checks the connection
func (rp *RedisPersistence) Ping(ctx context.Context) error {
	if err := rp.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the client
func (rp *RedisPersistence) Close() error {
	return rp.client.Close()
}

func (rp *RedisPersistence) key(id string) string {
	return redisKeyPrefix + normalizeID(id)
}

func (rp *RedisPersistence) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), rp.timeout)
}

// Save stores the session document and refreshes its TTL
func (rp *RedisPersistence) Save(session *service.Session) error {
	data, err := rp.codec.encode(session)
	if err != nil {
		return err
	}

	ctx, cancel := rp.ctx()
	defer cancel()

	pipe := rp.client.TxPipeline()
	pipe.Set(ctx, rp.key(session.ID), data, rp.ttl)
	pipe.SAdd(ctx, redisIndexKey, normalizeID(session.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		rp.logger.Printf("redis: failed to save session %s: %v", session.ID, err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load fetches and decodes a session
func (rp *RedisPersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := rp.ctx()
	defer cancel()

	data, err := rp.client.Get(ctx, rp.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return rp.codec.decode(data)
}

// Delete removes the session document and its index entry
func (rp *RedisPersistence) Delete(id string) error {
	ctx, cancel := rp.ctx()
	defer cancel()

	removed, err := rp.client.Del(ctx, rp.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := rp.client.SRem(ctx, redisIndexKey, normalizeID(id)).Err(); err != nil {
		return fmt.Errorf("failed to update session index: %w", err)
	}
	if removed == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns the indexed IDs whose documents have not expired. Expired
// entries are pruned from the index as they are found.
func (rp *RedisPersistence) ListAll() ([]string, error) {
	ctx, cancel := rp.ctx()
	defer cancel()

	ids, err := rp.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := rp.client.Exists(ctx, rp.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check session %s: %w", id, err)
		}
		if n == 0 {
			rp.client.SRem(ctx, redisIndexKey, id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

// Exists checks if a session document is present. A failed check reads as
// absent; use CheckExists to tell the two apart.
func (rp *RedisPersistence) Exists(id string) bool {
	ok, err := rp.CheckExists(id)
	if err != nil {
		rp.logger.Printf("redis: exists check for %s failed: %v", id, err)
		return false
	}
	return ok
}

// CheckExists checks if a session document is present
func (rp *RedisPersistence) CheckExists(id string) (bool, error) {
	ctx, cancel := rp.ctx()
	defer cancel()

	n, err := rp.client.Exists(ctx, rp.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session %s: %w", id, err)
	}
	return n > 0, nil
}

// Touch resets the TTL of a stored session
func (rp *RedisPersistence) Touch(id string) error {
	ctx, cancel := rp.ctx()
	defer cancel()

	ok, err := rp.client.Expire(ctx, rp.key(id), rp.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to refresh session ttl: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}
