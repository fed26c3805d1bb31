package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"fetchq/internal/model"
)

const redisOpTimeout = 5 * time.Second

// RedisStore keeps the snapshot as one JSON value in Redis, for deployments
// where the orchestrator has no stable disk. Same best-effort semantics as
// the file backend.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(addr, password, key string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}

	if key == "" {
		key = "fetchq:state"
	}
	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) Save(snap model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot for %s: %w", s.key, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write snapshot to redis key %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Load() model.Snapshot {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("warning: read snapshot from redis key %s: %v (starting empty)", s.key, err)
		}
		return normalizeLoaded(model.Snapshot{})
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("warning: snapshot at redis key %s is corrupt: %v (starting empty)", s.key, err)
		return normalizeLoaded(model.Snapshot{})
	}
	return normalizeLoaded(snap)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
