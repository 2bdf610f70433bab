package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooker/config"
	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseHold deletes a seat hold only if it still carries the caller's token.
var releaseHold = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisCache struct {
	client     redis.UniversalClient
	flightsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL,
	)
}

func NewRedisCacheWithClient(client redis.UniversalClient, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, flightsTTL: flightsTTL}
}

// GetFlights returns the flight list cached for the current generation
// together with that generation. A nil list is a miss.
func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, int64, error) {
	gen, err := c.client.Get(ctx, flightsGenKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	var flights []domain.Flight
	ok, err := c.getJSON(ctx, flightsKey(gen), &flights)
	if err != nil || !ok {
		return nil, gen, err
	}
	return flights, gen, nil
}

// SetFlights caches a list loaded after GetFlights reported gen. A list
// stored under a generation that InvalidateFlights has since retired is
// never read back.
func (c *RedisCache) SetFlights(ctx context.Context, gen int64, flights []domain.Flight) error {
	return c.setJSON(ctx, flightsKey(gen), flights, c.flightsTTL)
}

// InvalidateFlights retires the cached flight list after seat counters change.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Incr(ctx, flightsGenKey).Err()
}

// GetDirectory returns the cached airports and airlines, or nil on a miss.
func (c *RedisCache) GetDirectory(ctx context.Context) (*domain.Directory, error) {
	var dir domain.Directory
	ok, err := c.getJSON(ctx, directoryKey, &dir)
	if err != nil || !ok {
		return nil, err
	}
	return &dir, nil
}

func (c *RedisCache) SetDirectory(ctx context.Context, dir domain.Directory) error {
	return c.setJSON(ctx, directoryKey, dir, directoryTTL)
}

func (c *RedisCache) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

// AcquireSeatHold takes a short-lived hold on a seat. It returns the hold
// token, or "" when another request holds the seat.
func (c *RedisCache) AcquireSeatHold(ctx context.Context, flightID, seatID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, seatHoldKey(flightID, seatID), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

func (c *RedisCache) ReleaseSeatHold(ctx context.Context, flightID, seatID int64, token string) error {
	return releaseHold.Run(ctx, c.client, []string{seatHoldKey(flightID, seatID)}, token).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

const (
	flightsGenKey = "cache:flights:gen"
	directoryKey  = "cache:directory"

	// Airports and airlines change by migration only.
	directoryTTL = time.Hour
)

func flightsKey(gen int64) string {
	return fmt.Sprintf("cache:flights:v%d", gen)
}

func seatHoldKey(flightID, seatID int64) string {
	return fmt.Sprintf("hold:flight:%d:seat:%d", flightID, seatID)
}
