package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin JSON layer over Redis. Keys are namespaced per viewer so a
// mutation can drop everything a user might see as stale with one scan.
type Cache struct {
	rdb *redis.Client
}

func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func SnapshotKey(viewerID, contentKey string) string {
	return fmt.Sprintf("activity:%s:%s", viewerID, contentKey)
}

func RailsKey(viewerID, format string, year int, favKey string) string {
	if viewerID == "" {
		viewerID = "anon"
	}
	if format == "" {
		format = "all"
	}
	return fmt.Sprintf("rails:%s:%s:%d:%s", viewerID, format, year, favKey)
}

// GetJSON reads key into dest. The boolean is false on a miss; a corrupt
// entry is treated as a miss as well.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// InvalidateViewer drops every cached view held for userID.
func (c *Cache) InvalidateViewer(ctx context.Context, userID string) error {
	for _, pattern := range []string{
		fmt.Sprintf("activity:%s:*", userID),
		fmt.Sprintf("rails:%s:*", userID),
	} {
		if err := c.deleteByPattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache del %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	return nil
}
