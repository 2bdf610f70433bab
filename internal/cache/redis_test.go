package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooker/config"
	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379"}, time.Minute)
	defer c.Close()

	assert.NotNil(t, c)
	assert.Equal(t, time.Minute, c.flightsTTL)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "cache:flights:v0", flightsKey(0))
	assert.Equal(t, "cache:flights:v12", flightsKey(12))
	assert.Equal(t, "hold:flight:4:seat:17", seatHoldKey(4, 17))
}

func TestRedisCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheWithClient(client, time.Minute)
	defer c.Close()
	ctx := context.Background()

	token, err := c.AcquireSeatHold(ctx, 1, 2, time.Second)
	assert.Error(t, err)
	assert.Empty(t, token)

	flights, _, err := c.GetFlights(ctx)
	assert.Error(t, err)
	assert.Nil(t, flights)

	dir, err := c.GetDirectory(ctx)
	assert.Error(t, err)
	assert.Nil(t, dir)

	assert.Error(t, c.SetFlights(ctx, 0, []domain.Flight{{ID: 1}}))
	assert.Error(t, c.SetDirectory(ctx, domain.Directory{}))
	assert.Error(t, c.InvalidateFlights(ctx))
	assert.Error(t, c.ReleaseSeatHold(ctx, 1, 2, "token"))
}

func TestRedisCache_GetFlights_Hit(t *testing.T) {
	client, rmock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client, time.Minute)
	ctx := context.Background()

	cached := []domain.Flight{{ID: 1, FlightNumber: "SU1402", AvailableSeats: 10}}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	rmock.ExpectGet("cache:flights:gen").SetVal("3")
	rmock.ExpectGet("cache:flights:v3").SetVal(string(payload))

	flights, gen, err := c.GetFlights(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), gen)
	require.Len(t, flights, 1)
	assert.Equal(t, "SU1402", flights[0].FlightNumber)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRedisCache_SetFlights_AfterInvalidateIsNotRead(t *testing.T) {
	client, rmock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client, time.Minute)
	ctx := context.Background()

	beforeBooking := []domain.Flight{{ID: 1, AvailableSeats: 10}}
	payload, err := json.Marshal(beforeBooking)
	require.NoError(t, err)

	rmock.ExpectGet("cache:flights:gen").RedisNil()
	rmock.ExpectGet("cache:flights:v0").RedisNil()
	rmock.ExpectIncr("cache:flights:gen").SetVal(1)
	rmock.ExpectSet("cache:flights:v0", payload, time.Minute).SetVal("OK")
	rmock.ExpectGet("cache:flights:gen").SetVal("1")
	rmock.ExpectGet("cache:flights:v1").RedisNil()

	// A search misses and loads the list, then a booking commits before the
	// search writes the list back.
	flights, gen, err := c.GetFlights(ctx)
	require.NoError(t, err)
	assert.Nil(t, flights)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, c.InvalidateFlights(ctx))
	require.NoError(t, c.SetFlights(ctx, gen, beforeBooking))

	flights, gen, err = c.GetFlights(ctx)
	require.NoError(t, err)
	assert.Nil(t, flights)
	assert.Equal(t, int64(1), gen)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRedisCache_Directory(t *testing.T) {
	client, rmock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client, time.Minute)
	ctx := context.Background()

	dir := domain.Directory{
		Airports: []domain.Airport{{ID: 1, Code: "SVO", Name: "Sheremetyevo", City: "Moscow", Country: "Russia"}},
		Airlines: []domain.Airline{{ID: 1, Code: "SU", Name: "Aeroflot"}},
	}
	payload, err := json.Marshal(dir)
	require.NoError(t, err)

	rmock.ExpectGet("cache:directory").RedisNil()
	rmock.ExpectSet("cache:directory", payload, directoryTTL).SetVal("OK")
	rmock.ExpectGet("cache:directory").SetVal(string(payload))

	got, err := c.GetDirectory(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.SetDirectory(ctx, dir))

	got, err = c.GetDirectory(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, dir, *got)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRedisCache_GetFlights_CorruptEntry(t *testing.T) {
	client, rmock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client, time.Minute)

	rmock.ExpectGet("cache:flights:gen").SetVal("2")
	rmock.ExpectGet("cache:flights:v2").SetVal("{not json")

	flights, _, err := c.GetFlights(context.Background())
	assert.Error(t, err)
	assert.Nil(t, flights)
}
