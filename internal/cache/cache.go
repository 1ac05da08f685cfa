// Package cache is a thin JSON-over-redis cache. A miss or a down redis is
// never an error path for callers; they fall through to the real work.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Service struct {
	client *redis.Client
}

func New(client *redis.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key not found")
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// SetLastRefresh records when a scheduled pipeline run last completed.
func (s *Service) SetLastRefresh(ctx context.Context, name string, at time.Time) error {
	return s.Set(ctx, fmt.Sprintf("picks:last_refresh:%s", name), at, 0)
}

// LastRefresh returns the recorded completion time, zero when unknown.
func (s *Service) LastRefresh(ctx context.Context, name string) time.Time {
	var at time.Time
	if err := s.Get(ctx, fmt.Sprintf("picks:last_refresh:%s", name), &at); err != nil {
		return time.Time{}
	}
	return at
}
