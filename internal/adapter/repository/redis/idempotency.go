package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// processingMarker is stored while the first request holding a key is still
// in flight, so concurrent retries neither run the mutation twice nor read a
// half-written response.
const processingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore using Redis. Title and
// wallet mutations replay their stored response when a client retries with
// the same Idempotency-Key.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "idempotency:",
	}
}

// CheckAndSet atomically claims the key. It returns (false, nil, nil) when
// this caller claimed it, or (true, stored, nil) when another request already
// holds it; stored is either the final response or the processing marker.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	value := response
	if value == nil {
		value = []byte(processingMarker)
	}

	set, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return false, nil, err
	}

	if set {
		return false, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if err != nil && err != redis.Nil {
		return false, nil, err
	}

	return true, existing, nil
}

// Update replaces the claimed key with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}
