package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ScheduleCache caches resolved day schedules in Redis. A nil
// *ScheduleCache is valid and behaves as a cache that always misses, so
// callers never guard against a disabled cache.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScheduleCache connects to Redis and returns a schedule cache
func NewScheduleCache(addr string, ttl time.Duration) (*ScheduleCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return &ScheduleCache{client: client, ttl: ttl}, nil
}

// Close releases the Redis connection
func (c *ScheduleCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func scheduleKey(role string, ownerID int64, date time.Time) string {
	return fmt.Sprintf("schedule:%s:%d:%s", role, ownerID, date.Format("2006-01-02"))
}

// GetDaySchedule retrieves a cached day schedule. The second return is
// false on a miss or any cache failure; failures are logged, never
// surfaced.
func (c *ScheduleCache) GetDaySchedule(ctx context.Context, role string, ownerID int64, date time.Time) ([]*models.Occurrence, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, scheduleKey(role, ownerID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Schedule cache read failed")
		return nil, false
	}

	var occurrences []*models.Occurrence
	if err := json.Unmarshal(data, &occurrences); err != nil {
		logger.Warn().Err(err).Msg("Schedule cache entry corrupt")
		return nil, false
	}

	return occurrences, true
}

// SetDaySchedule stores a resolved day schedule
func (c *ScheduleCache) SetDaySchedule(ctx context.Context, role string, ownerID int64, date time.Time, occurrences []*models.Occurrence) {
	if c == nil {
		return
	}

	data, err := json.Marshal(occurrences)
	if err != nil {
		logger.Warn().Err(err).Msg("Schedule cache encode failed")
		return
	}

	if err := c.client.Set(ctx, scheduleKey(role, ownerID, date), data, c.ttl).Err(); err != nil {
		logger.Warn().Err(err).Msg("Schedule cache write failed")
	}
}

// InvalidateDate drops every cached schedule for the given date. Called
// when a request decision changes what that day looks like.
func (c *ScheduleCache) InvalidateDate(ctx context.Context, date time.Time) {
	if c == nil {
		return
	}

	pattern := fmt.Sprintf("schedule:*:*:%s", date.Format("2006-01-02"))
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn().Err(err).Msg("Schedule cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn().Err(err).Msg("Schedule cache invalidation failed")
	}
}
