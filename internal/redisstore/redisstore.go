// Package redisstore keeps the work order counter and the revoked access
// token list in Redis.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient connects and pings with a short timeout.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// HighWater reports the highest sequence already used for a year.
type HighWater interface {
	Highest(ctx context.Context, year int) (int64, error)
}

// Sequence hands out per-year work order sequence values with INCR. A
// missing key is first seeded from the high water mark, so a flushed Redis
// never hands out numbers that are already stored.
type Sequence struct {
	rdb   *redis.Client
	floor HighWater
}

func NewSequence(rdb *redis.Client, floor HighWater) *Sequence {
	return &Sequence{rdb: rdb, floor: floor}
}

func seqKey(year int) string { return fmt.Sprintf("fms:wo_seq:%d", year) }

func (s *Sequence) Next(ctx context.Context, year int) (int64, error) {
	key := seqKey(year)
	if s.floor != nil {
		n, err := s.rdb.Exists(ctx, key).Result()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			high, err := s.floor.Highest(ctx, year)
			if err != nil {
				return 0, err
			}
			// SETNX so a concurrent seeder that won keeps its value.
			if err := s.rdb.SetNX(ctx, key, high, 0).Err(); err != nil {
				return 0, err
			}
		}
	}
	return s.rdb.Incr(ctx, key).Result()
}

// Denylist records access token IDs revoked before they expire.
type Denylist struct {
	rdb *redis.Client
}

func NewDenylist(rdb *redis.Client) *Denylist {
	return &Denylist{rdb: rdb}
}

func denyKey(jti string) string { return "fms:revoked_jti:" + jti }

// Revoke denies jti until the token would have expired anyway.
func (d *Denylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, denyKey(jti), 1, ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.rdb.Exists(ctx, denyKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
