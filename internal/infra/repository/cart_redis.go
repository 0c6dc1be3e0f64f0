package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// CartRedisStorage はキーごとに明細のJSON配列を1つ保存する。
type CartRedisStorage struct {
	rdb *redis.Client
	ttl time.Duration
}

// ttlが0なら期限なし
func NewCartRedisStorage(rdb *redis.Client, ttl time.Duration) *CartRedisStorage {
	return &CartRedisStorage{rdb: rdb, ttl: ttl}
}

func (s *CartRedisStorage) Load(ctx context.Context, key string) ([]model.CartLine, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var lines []model.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", key, err)
	}
	return lines, nil
}

func (s *CartRedisStorage) Save(ctx context.Context, key string, lines []model.CartLine) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
