package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMarks stores the per-day sent markers in Redis, shared by every
// process running the sweep. Keys expire after two days; the sweep only ever
// reads the current day.
type RedisMarks struct {
	rdb *redis.Client
}

// NewRedisMarks creates a mark store from a Redis URL.
func NewRedisMarks(redisURL string) (*RedisMarks, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &RedisMarks{rdb: redis.NewClient(opts)}, nil
}

// NewRedisMarksFromClient wraps an existing client. Test helper.
func NewRedisMarksFromClient(rdb *redis.Client) *RedisMarks {
	return &RedisMarks{rdb: rdb}
}

var _ Marks = (*RedisMarks)(nil)

func (m *RedisMarks) MarkSent(ctx context.Context, userID uint, date string) (bool, error) {
	first, err := m.rdb.SetNX(ctx, markKey(userID, date), "1", 48*time.Hour).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set reminder mark: %w", err)
	}
	return first, nil
}

func (m *RedisMarks) Clear(ctx context.Context, userID uint, date string) error {
	if err := m.rdb.Del(ctx, markKey(userID, date)).Err(); err != nil {
		return fmt.Errorf("failed to release reminder mark: %w", err)
	}
	return nil
}

func markKey(userID uint, date string) string {
	return fmt.Sprintf("reminder:sent:%d:%s", userID, date)
}

// Close closes the underlying Redis connection.
func (m *RedisMarks) Close() error {
	return m.rdb.Close()
}
