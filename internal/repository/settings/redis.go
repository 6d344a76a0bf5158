package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// defaultKeyPrefix namespaces settings keys in the shared Redis instance.
const defaultKeyPrefix = "searchpad:settings:"

// RedisStore persists settings in Redis via rueidis.
type RedisStore struct {
	client rueidis.Client
	prefix string
	ttl    time.Duration
}

// Config holds connection parameters for a Redis settings store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// KeyPrefix namespaces keys; empty uses the default.
	KeyPrefix string
	// TTL expires stale settings; zero means keep forever.
	TTL time.Duration
}

// NewRedisStore connects to Redis and returns a settings store.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis client: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

// NewRedisStoreFromClient wraps an existing client (used in tests).
func NewRedisStoreFromClient(client rueidis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: defaultKeyPrefix, ttl: ttl}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, collectionID string) (*SearchSettings, error) {
	cmd := s.client.B().Get().Key(s.prefix + collectionID).Build()
	data, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settings %s: %w", collectionID, err)
	}

	var stored SearchSettings
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", collectionID, err)
	}
	return &stored, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, collectionID string, settings SearchSettings) error {
	val, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings %s: %w", collectionID, err)
	}

	b := s.client.B().Set().Key(s.prefix + collectionID).Value(string(val))
	var cmd rueidis.Completed
	if s.ttl > 0 {
		cmd = b.Ex(s.ttl).Build()
	} else {
		cmd = b.Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set settings %s: %w", collectionID, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *RedisStore) Close() {
	s.client.Close()
}
