// Package blacklist is the revocation cache consulted on every
// authenticated request. Entries live in Redis: per-token keys marking a
// single jti revoked, and per-user watermark keys invalidating every token
// issued before the watermark. Every entry expires no later than the last
// token it could affect, so the cache never grows unbounded.
//
// Failure policy: reads fail open (a Redis outage treats tokens as not
// blacklisted, trading strict revocation for availability); writes return
// the error so explicit user actions like logout can surface a 503 instead
// of silently no-opping.
package blacklist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vinald/bookapi/internal/logging"
)

const (
	tokenKeyPrefix = "blacklist:token:"
	userKeyPrefix  = "blacklist:user:"
)

type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// NewClient builds the process-wide Redis client. Connectivity is probed
// once; a failed ping is reported to the caller, who may still keep the
// client since reads fail open.
func NewClient(host, port, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
	})
	return rdb, rdb.Ping(context.Background()).Err()
}

// BlacklistToken marks a single token unusable for ttl, which callers set
// to the token's remaining natural lifetime. Idempotent.
func (c *Cache) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, tokenKeyPrefix+jti, "revoked", ttl).Err()
}

func (c *Cache) IsTokenBlacklisted(ctx context.Context, jti string) bool {
	n, err := c.rdb.Exists(ctx, tokenKeyPrefix+jti).Result()
	if err != nil {
		logging.FromContext(ctx).Warn("blacklist read failed, failing open", "jti", jti, "error", err)
		return false
	}
	return n > 0
}

// BlacklistAllForUser records the current time as the user's watermark.
// Any token issued before it is considered revoked. Last write wins; ttl
// should equal the maximum refresh-token lifetime.
func (c *Cache) BlacklistAllForUser(ctx context.Context, userUUID string, ttl time.Duration) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	return c.rdb.Set(ctx, userKeyPrefix+userUUID, now, ttl).Err()
}

func (c *Cache) IsUserBlacklistedBefore(ctx context.Context, userUUID string, issuedAt time.Time) bool {
	val, err := c.rdb.Get(ctx, userKeyPrefix+userUUID).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		logging.FromContext(ctx).Warn("watermark read failed, failing open", "user", userUUID, "error", err)
		return false
	}
	watermark, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		logging.FromContext(ctx).Error("malformed watermark entry", "user", userUUID, "value", val)
		return false
	}
	return issuedAt.Unix() < watermark
}
