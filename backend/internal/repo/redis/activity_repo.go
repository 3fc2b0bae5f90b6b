package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const activeDayPrefix = "active_day:"

type ActivityRepo struct {
	client *goredis.Client
}

func NewActivityRepo(client *goredis.Client) *ActivityRepo {
	return &ActivityRepo{client: client}
}

// MarkActiveDay returns true only for the first call per user and day.
func (r *ActivityRepo) MarkActiveDay(ctx context.Context, fid int64, day string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if fid <= 0 || day == "" {
		return false, fmt.Errorf("invalid active day payload")
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}

	first, err := r.client.SetNX(ctx, activeDayKey(fid, day), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark active day: %w", err)
	}
	return first, nil
}

// UnmarkActiveDay releases the day so a failed award can be retried.
func (r *ActivityRepo) UnmarkActiveDay(ctx context.Context, fid int64, day string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, activeDayKey(fid, day)).Err(); err != nil {
		return fmt.Errorf("unmark active day: %w", err)
	}
	return nil
}

func activeDayKey(fid int64, day string) string {
	return activeDayPrefix + strconv.FormatInt(fid, 10) + ":" + day
}
