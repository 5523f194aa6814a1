package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"utttserver/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	OngoingMatchesKey   = "ongoing-public-matches"
	MatchmakingQueueKey = "matchmaking-queue"

	// DefaultMatchTTL は試合データの有効期限（8週間、書き込みのたびに延長）
	DefaultMatchTTL = 8 * 7 * 24 * time.Hour
)

// RedisStore はRedisを使った MatchStore の実装です。
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultMatchTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, logger: logger}
}

func (s *RedisStore) Load(ctx context.Context, code string) (*models.Match, error) {
	raw, err := s.rdb.Get(ctx, code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading match %s: %w", code, err)
	}
	match, err := models.DecodeMatch(raw)
	if err != nil {
		// 形式が合わないレコードは存在しないものとして扱う
		s.logger.Warn("Discarding unreadable match record", zap.String("code", code), zap.Error(err))
		return nil, ErrMatchNotFound
	}
	return match, nil
}

func (s *RedisStore) Save(ctx context.Context, match *models.Match) error {
	data, err := models.EncodeMatch(match)
	if err != nil {
		return fmt.Errorf("encoding match %s: %w", match.Code, err)
	}
	if err := s.rdb.Set(ctx, match.Code, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving match %s: %w", match.Code, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, code string) error {
	if err := s.rdb.Del(ctx, code).Err(); err != nil {
		return fmt.Errorf("deleting match %s: %w", code, err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, code string) (bool, error) {
	n, err := s.rdb.Exists(ctx, code).Result()
	if err != nil {
		return false, fmt.Errorf("checking match %s: %w", code, err)
	}
	return n == 1, nil
}

func (s *RedisStore) AddOngoing(ctx context.Context, code string) error {
	return s.rdb.SAdd(ctx, OngoingMatchesKey, code).Err()
}

func (s *RedisStore) RemoveOngoing(ctx context.Context, code string) error {
	return s.rdb.SRem(ctx, OngoingMatchesKey, code).Err()
}

func (s *RedisStore) RandomOngoing(ctx context.Context) (string, error) {
	code, err := s.rdb.SRandMember(ctx, OngoingMatchesKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("sampling ongoing matches: %w", err)
	}
	return code, nil
}

func (s *RedisStore) OngoingCodes(ctx context.Context) ([]string, error) {
	return s.rdb.SMembers(ctx, OngoingMatchesKey).Result()
}

func (s *RedisStore) Enqueue(ctx context.Context, code string) error {
	return s.rdb.RPush(ctx, MatchmakingQueueKey, code).Err()
}

func (s *RedisStore) Dequeue(ctx context.Context) (string, error) {
	code, err := s.rdb.LPop(ctx, MatchmakingQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrEmpty
	}
	if err != nil {
		return "", fmt.Errorf("popping matchmaking queue: %w", err)
	}
	return code, nil
}

func (s *RedisStore) RemoveQueued(ctx context.Context, code string) error {
	return s.rdb.LRem(ctx, MatchmakingQueueKey, 1, code).Err()
}

func (s *RedisStore) QueuedCodes(ctx context.Context) ([]string, error) {
	return s.rdb.LRange(ctx, MatchmakingQueueKey, 0, -1).Result()
}
