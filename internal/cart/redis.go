package cart

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/nkashyap/storefront/internal/models"
)

// RedisStore keeps each user's cart in a Redis hash keyed by product
// id. Carts are ephemeral state, so they live next to the cache
// rather than in Postgres.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func cartKey(userID int) string {
	return fmt.Sprintf("cart:%d", userID)
}

func (s *RedisStore) Set(ctx context.Context, userID, productID, quantity int) error {
	err := s.client.HSet(ctx, cartKey(userID), strconv.Itoa(productID), quantity).Err()
	if err != nil {
		return fmt.Errorf("failed to set cart line: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, userID, productID int) error {
	err := s.client.HDel(ctx, cartKey(userID), strconv.Itoa(productID)).Err()
	if err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}
	return nil
}

func (s *RedisStore) Lines(ctx context.Context, userID int) ([]models.CartLine, error) {
	fields, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var out []models.CartLine
	for field, value := range fields {
		productID, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		out = append(out, models.CartLine{ProductID: productID, Quantity: qty})
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID int) error {
	err := s.client.Del(ctx, cartKey(userID)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
