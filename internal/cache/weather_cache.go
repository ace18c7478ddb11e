package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-redis/redis/v8"

	"weather-service/internal/entity"
)

// generationKey holds a counter that prefixes every cached query. Bumping it
// orphans all earlier entries, which then expire by TTL.
const generationKey = "weather:generation"

const DefaultTTL = 5 * time.Minute

// RedisWeatherCache caches weather query results in Redis.
type RedisWeatherCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisWeatherCache(rdb *redis.Client, ttl time.Duration) *RedisWeatherCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisWeatherCache{rdb: rdb, ttl: ttl}
}

// Generation returns the current cache generation, 0 if never invalidated.
func (c *RedisWeatherCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisWeatherCache) Get(ctx context.Context, gen int64, filter entity.WeatherFilter) ([]entity.WeatherRecord, bool, error) {
	data, err := c.rdb.Get(ctx, key(gen, filter)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var records []entity.WeatherRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("decode cached weather: %w", err)
	}
	return records, true, nil
}

func (c *RedisWeatherCache) Set(ctx context.Context, gen int64, filter entity.WeatherFilter, records []entity.WeatherRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(gen, filter), data, c.ttl).Err()
}

func (c *RedisWeatherCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, generationKey).Err()
}

func key(gen int64, filter entity.WeatherFilter) string {
	return fmt.Sprintf("weather:v%d:city=%s:date=%s", gen, url.QueryEscape(filter.City), url.QueryEscape(filter.Date))
}

// NopWeatherCache never stores anything.
type NopWeatherCache struct{}

func (NopWeatherCache) Generation(context.Context) (int64, error) { return 0, nil }

func (NopWeatherCache) Get(context.Context, int64, entity.WeatherFilter) ([]entity.WeatherRecord, bool, error) {
	return nil, false, nil
}

func (NopWeatherCache) Set(context.Context, int64, entity.WeatherFilter, []entity.WeatherRecord) error {
	return nil
}

func (NopWeatherCache) Invalidate(context.Context) error { return nil }
