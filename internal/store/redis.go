// Package store persists voting sessions in Redis and maintains the
// key registry that stands in for key enumeration.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"opinavote/bot/internal/vote"
)

// ErrNotFound is returned when no session record exists for a key.
var ErrNotFound = errors.New("session not found")

// indexKey is the hash whose fields enumerate every registered session
// key. Redis has no cheap "list all keys" primitive, so sessions are
// registered here at creation and never removed.
const indexKey = "index:keys"

// Store is the Redis-backed session store.
type Store struct {
	client *redis.Client
}

// New connects to Redis at the given URL and verifies the connection.
func New(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a store from an existing Redis client.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// GetSession loads and decodes the session record for a thread.
// Returns ErrNotFound when the key has no record.
func (s *Store) GetSession(ctx context.Context, threadID string) (vote.Record, error) {
	data, err := s.client.Get(ctx, threadID).Result()
	if err == redis.Nil {
		return vote.Record{}, ErrNotFound
	}
	if err != nil {
		return vote.Record{}, fmt.Errorf("load session %s: %w", threadID, err)
	}

	var rec vote.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return vote.Record{}, fmt.Errorf("unmarshal session %s: %w", threadID, err)
	}
	return rec, nil
}

// SaveSession encodes and persists the session record under the thread
// id. Records have no TTL; a closed session stays readable so the
// reconciliation job can keep its final result rendered.
func (s *Store) SaveSession(ctx context.Context, threadID string, rec vote.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", threadID, err)
	}
	if err := s.client.Set(ctx, threadID, data, 0).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", threadID, err)
	}
	return nil
}

// RegisterKey adds a session key to the registry. Registering the same
// key twice is harmless.
func (s *Store) RegisterKey(ctx context.Context, threadID string) error {
	if err := s.client.HSet(ctx, indexKey, threadID, "active").Err(); err != nil {
		return fmt.Errorf("register key %s: %w", threadID, err)
	}
	return nil
}

// SessionKeys returns every registered session key.
func (s *Store) SessionKeys(ctx context.Context) ([]string, error) {
	keys, err := s.client.HKeys(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list session keys: %w", err)
	}
	return keys, nil
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
