package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Domenick1991/railbooking/config"
	"github.com/Domenick1991/railbooking/internal/domain"
)

type RedisCache struct {
	client     *redis.Client
	seatMapTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, seatMapTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		seatMapTTL: seatMapTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetSeatMap returns the cached seat inventory of a schedule together with the
// seat map version. On a miss the seats are nil and the version is the one a
// later SetSeatMap must present.
func (c *RedisCache) GetSeatMap(ctx context.Context, scheduleID int64) ([]domain.Seat, int64, error) {
	vals, err := c.client.MGet(ctx, seatMapKey(scheduleID), seatMapVersionKey(scheduleID)).Result()
	if err != nil {
		return nil, 0, err
	}

	var version int64
	if v, ok := vals[1].(string); ok {
		if version, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, 0, fmt.Errorf("parse seat map version: %w", err)
		}
	}
	data, ok := vals[0].(string)
	if !ok {
		return nil, version, nil
	}

	var seats []domain.Seat
	if err := json.Unmarshal([]byte(data), &seats); err != nil {
		return nil, version, err
	}
	return seats, version, nil
}

var setSeatMapScript = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// SetSeatMap stores seats read at version. A seat map invalidated since then
// is not stored.
func (c *RedisCache) SetSeatMap(ctx context.Context, scheduleID, version int64, seats []domain.Seat) error {
	payload, err := json.Marshal(seats)
	if err != nil {
		return err
	}
	keys := []string{seatMapKey(scheduleID), seatMapVersionKey(scheduleID)}
	return setSeatMapScript.Run(ctx, c.client, keys, strconv.FormatInt(version, 10), payload, c.seatMapTTL.Milliseconds()).Err()
}

func (c *RedisCache) InvalidateSeatMap(ctx context.Context, scheduleID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, seatMapVersionKey(scheduleID))
		pipe.Del(ctx, seatMapKey(scheduleID))
		return nil
	})
	return err
}

// HoldSeats takes a short-lived hold on every seat or on none of them. The
// returned slice lists the seats already held by someone else.
func (c *RedisCache) HoldSeats(ctx context.Context, scheduleID int64, seatIDs []int64, owner string, ttl time.Duration) ([]int64, error) {
	acquired := make([]int64, 0, len(seatIDs))
	var busy []int64
	for _, id := range seatIDs {
		ok, err := c.client.SetNX(ctx, seatHoldKey(scheduleID, id), owner, ttl).Result()
		if err != nil {
			c.release(ctx, scheduleID, acquired, owner)
			return nil, err
		}
		if !ok {
			busy = append(busy, id)
			continue
		}
		acquired = append(acquired, id)
	}
	if len(busy) > 0 {
		c.release(ctx, scheduleID, acquired, owner)
		return busy, nil
	}
	return nil, nil
}

// ReleaseSeats drops holds taken by owner. Holds owned by someone else are
// left alone.
func (c *RedisCache) ReleaseSeats(ctx context.Context, scheduleID int64, seatIDs []int64, owner string) error {
	return c.release(ctx, scheduleID, seatIDs, owner)
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (c *RedisCache) release(ctx context.Context, scheduleID int64, seatIDs []int64, owner string) error {
	var firstErr error
	for _, id := range seatIDs {
		if err := releaseScript.Run(ctx, c.client, []string{seatHoldKey(scheduleID, id)}, owner).Err(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func seatMapKey(scheduleID int64) string {
	return fmt.Sprintf("cache:schedule:%d:seats", scheduleID)
}

func seatMapVersionKey(scheduleID int64) string {
	return fmt.Sprintf("cache:schedule:%d:seats:version", scheduleID)
}

func seatHoldKey(scheduleID, seatID int64) string {
	return fmt.Sprintf("hold:schedule:%d:seat:%d", scheduleID, seatID)
}
