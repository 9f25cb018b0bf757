package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yaroph/connect/internal/domain"
)

const (
	docKeyPrefix   = "connect:doc:"
	imageKeyPrefix = "connect:image:"
)

// Store keeps documents as Redis string values, one key per document.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, docKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, docKeyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// ImageStore keeps image payloads in Redis hashes, data and content type
// side by side.
type ImageStore struct {
	client *redis.Client
}

func NewImageStore(client *redis.Client) *ImageStore {
	return &ImageStore{client: client}
}

func (s *ImageStore) Put(ctx context.Context, filename string, data []byte, contentType string) error {
	err := s.client.HSet(ctx, imageKeyPrefix+filename,
		"data", data,
		"contentType", contentType,
	).Err()
	if err != nil {
		return fmt.Errorf("redis store image %s: %w", filename, err)
	}
	return nil
}

func (s *ImageStore) Fetch(ctx context.Context, filename string) ([]byte, string, error) {
	values, err := s.client.HGetAll(ctx, imageKeyPrefix+filename).Result()
	if err != nil {
		return nil, "", fmt.Errorf("redis fetch image %s: %w", filename, err)
	}
	data, ok := values["data"]
	if !ok {
		return nil, "", domain.ErrImageNotFound
	}
	return []byte(data), values["contentType"], nil
}
