package storage

import (
	"context"
	"errors"
	"time"

	"roomchat/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// IsUserBanned checks the suspension list in Redis.
func (s *Service) IsUserBanned(ctx context.Context, userID string) (bool, error) {
	status, err := s.Redis.Get(ctx, config.BanKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// BanUser suspends a user from joining rooms. A zero duration never expires.
func (s *Service) BanUser(ctx context.Context, userID, reason string, duration time.Duration) error {
	if reason == "" {
		reason = "suspended"
	}
	return s.Redis.Set(ctx, config.BanKeyPrefix+userID, reason, duration).Err()
}

// UnbanUser lifts a suspension.
func (s *Service) UnbanUser(ctx context.Context, userID string) error {
	return s.Redis.Del(ctx, config.BanKeyPrefix+userID).Err()
}
