package counter

import (
	"context"
	"fmt"
	"time"

	"catalogo/api/internal/rbac"
	"github.com/redis/go-redis/v9"
)

const (
	keyUserLogins  = "acessos:user"
	keyAdminLogins = "acessos:admin"
)

// RedisStore keeps the login counters in Redis. INCR makes the
// read-modify-write atomic, which the file backend never was.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings before returning.
func NewRedisStore(redisURL string) (*RedisStore, error) {
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

	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) (Counters, error) {
	var counters Counters
	user, err := s.client.Get(ctx, keyUserLogins).Int()
	if err != nil && err != redis.Nil {
		return Counters{}, fmt.Errorf("load user counter: %w", err)
	}
	admin, err := s.client.Get(ctx, keyAdminLogins).Int()
	if err != nil && err != redis.Nil {
		return Counters{}, fmt.Errorf("load admin counter: %w", err)
	}
	counters.UserLogins = user
	counters.AdminLogins = admin
	return counters, nil
}

func (s *RedisStore) Increment(ctx context.Context, role rbac.Role) (Counters, error) {
	key := keyUserLogins
	if role == rbac.RoleAdmin {
		key = keyAdminLogins
	}
	if err := s.client.Incr(ctx, key).Err(); err != nil {
		return Counters{}, fmt.Errorf("increment %s: %w", key, err)
	}
	return s.Load(ctx)
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
