// Package guard serializes bookings per agent and day across API instances.
package guard

import (
	"context"
	"fmt"
	"time"

	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "crm:booking:"
	defaultTTL = 10 * time.Second
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Guard grants exclusive booking rights for one agent on one date.
type Guard interface {
	Acquire(ctx context.Context, agentID uuid.UUID, date time.Time) (release func(), err error)
}

// RedisGuard implements Guard with SET NX locks that expire after ttl.
type RedisGuard struct {
	client redisLocker
	ttl    time.Duration
}

// redisLocker is the subset of the client the guard needs.
type redisLocker interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// NewRedisGuard creates a guard. A non-positive ttl uses the default.
func NewRedisGuard(client redisLocker, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Key is the lock key for agent and date.
func Key(agentID uuid.UUID, date time.Time) string {
	return keyPrefix + agentID.String() + ":" + date.Format("2006-01-02")
}

// Acquire takes the lock or fails with a Conflict when another booking for the
// same agent and date is in flight.
func (g *RedisGuard) Acquire(ctx context.Context, agentID uuid.UUID, date time.Time) (func(), error) {
	key := Key(agentID, date)
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire booking lock: %w", err)
	}
	if !ok {
		return nil, apperr.Conflict("another booking for this agent and date is in progress").
			WithDetails(map[string]any{"agentId": agentID, "date": date.Format("2006-01-02")})
	}

	release := func() {
		// The request context may already be canceled; the lock must still go.
		_ = releaseScript.Run(context.WithoutCancel(ctx), g.client, []string{key}, token).Err()
	}
	return release, nil
}

// Noop grants every request. It is used when Redis is not configured and a
// single API instance relies on the conditional slot update alone.
type Noop struct{}

// Acquire implements Guard.
func (Noop) Acquire(context.Context, uuid.UUID, time.Time) (func(), error) {
	return func() {}, nil
}

// NewRedisClient connects to the configured Redis URL.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

var (
	_ Guard = (*RedisGuard)(nil)
	_ Guard = Noop{}
)
