// Package redisstore caches encoded graph records in redis in front of
// another loader.Source.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the redis connection and key settings.
type Config struct {
	// Addr is the redis server address (host:port)
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key
	Prefix string
	// TTL applies to entries stored without an explicit TTL. Zero keeps
	// entries until they are deleted.
	TTL time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:   "localhost:6379",
		Prefix: "metagraph:",
		TTL:    time.Hour,
	}
}

// ErrCacheMiss is returned when a key is not in the cache.
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	var miss ErrCacheMiss
	return errors.As(err, &miss)
}

// Cache is a prefixed byte cache over a redis client.
type Cache struct {
	client *redis.Client
	config Config
}

// New connects to redis and verifies the connection.
func New(ctx context.Context, config Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return NewWithClient(client, config), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, config Config) *Cache {
	return &Cache{client: client, config: config}
}

// Get returns the value stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.config.Prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss{Key: key}
		}
		return nil, err
	}
	return value, nil
}

// Set stores value under key. A zero ttl uses the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.config.TTL
	}
	return c.client.Set(ctx, c.config.Prefix+key, value, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.config.Prefix+key).Err()
}

// Clear removes every key with the cache prefix.
func (c *Cache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.config.Prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Exists(ctx, c.config.Prefix+key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Close closes the redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
