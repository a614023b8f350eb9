package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/jobfeed/internal/store"
)

// Store keeps slots as plain redis strings without TTL: bookmarks never expire.
type Store struct {
	client *redis.Client
}

// NewStore wraps an already connected client (see internal/redis.New).
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, Key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, name string, value []byte) error {
	if err := s.client.Set(ctx, Key(name), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, Key(name)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// Slots lists the slot names currently stored under KeyPrefix.
func (s *Store) Slots(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if name, ok := SlotName(iter.Val()); ok {
			names = append(names, name)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan slots: %w", err)
	}
	return names, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
