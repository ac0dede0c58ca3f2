package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/dukahq/duka-backend/pkg/types"
)

type redisCommander interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(identityID string) string
}

// RedisStore keeps each cart record as a JSON blob under a namespaced key.
type RedisStore struct {
	client redisCommander
	ttl    time.Duration
}

func NewRedisStore(client redisCommander, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Read(ctx context.Context, identityID string) (*CartRecord, error) {
	if strings.TrimSpace(identityID) == "" {
		return nil, fmt.Errorf("identity id is required")
	}

	raw, err := s.client.Get(ctx, s.client.CartKey(identityID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cart blob: %w", err)
	}

	var lines types.CartLines
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode cart blob: %w", err)
	}
	return &CartRecord{Lines: lines}, nil
}

func (s *RedisStore) Write(ctx context.Context, identityID string, record CartRecord) error {
	if strings.TrimSpace(identityID) == "" {
		return fmt.Errorf("identity id is required")
	}

	lines := record.Lines
	if lines == nil {
		lines = types.CartLines{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart blob: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(identityID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("write cart blob: %w", err)
	}
	return nil
}
