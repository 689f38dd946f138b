package redis

import "context"

// Client is the Redis subset used for device state
type Client interface {
	// HSet writes the given fields of a hash in one round trip
	HSet(ctx context.Context, key string, fields map[string]interface{}) error

	// HGetAll returns all fields of a hash; a missing key yields an empty map
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// Ping checks the connection to Redis
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}
