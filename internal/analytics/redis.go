package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/WujsST/roi-sheet/internal/domain"
)

// retention keeps daily counters long enough for the dashboard's
// "executions today" fast path plus one day of slack.
const retention = 48 * time.Hour

// RedisSink keeps per-day execution counters in Redis so dashboard widgets
// can read today's activity without hitting Postgres.
type RedisSink struct {
	client *redis.Client
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

// RecordExecution increments the daily counters for one ingested execution.
func (s *RedisSink) RecordExecution(ctx context.Context, exec domain.Execution) error {
	day := exec.StartedAt.UTC().Format("20060102")

	totalKey := buildKey("total", day)
	platformKey := buildKey(string(exec.Platform), day)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, totalKey)
	pipe.Expire(ctx, totalKey, retention)
	pipe.Incr(ctx, platformKey)
	pipe.Expire(ctx, platformKey, retention)
	if exec.Status == domain.ExecutionStatusError {
		errKey := buildKey("errors", day)
		pipe.Incr(ctx, errKey)
		pipe.Expire(ctx, errKey, retention)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}

	return nil
}

func buildKey(kind, day string) string {
	return fmt.Sprintf("exec:%s:%s", kind, day)
}
