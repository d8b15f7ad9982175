package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ArtemEIPS/presentation-maker/store"
)

type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New connects to the redis server at addr. A zero ttl keeps documents
// forever; otherwise every save refreshes the expiry.
func New(ctx context.Context, addr string, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &Store{client: client, ttl: ttl}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Hash tag keeps every key of one document in the same cluster slot.
func buildDocumentKey(key string) string {
	return "deck:{" + key + "}"
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if !store.ValidKey(key) {
		return nil, store.ErrInvalidKey
	}
	data, err := s.client.Get(ctx, buildDocumentKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	return data, err
}

func (s *Store) Save(ctx context.Context, key string, body []byte) error {
	if !store.ValidKey(key) {
		return store.ErrInvalidKey
	}
	return s.client.Set(ctx, buildDocumentKey(key), body, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if !store.ValidKey(key) {
		return store.ErrInvalidKey
	}
	n, err := s.client.Del(ctx, buildDocumentKey(key)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
