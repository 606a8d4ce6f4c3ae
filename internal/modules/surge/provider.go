// README: Surge multiplier provider backed by Redis. The multiplier is an
// external demand signal; anything unreadable or nonsensical means 1.0.
package surge

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const defaultMultiplier = 1.0

type Provider struct {
	redis *redis.Client
	key   string
}

func NewProvider(redisClient *redis.Client, key string) *Provider {
	return &Provider{redis: redisClient, key: key}
}

// Current returns the live surge multiplier, defaulting to 1.0 when the key
// is absent, unreadable, or holds a non-positive value.
func (p *Provider) Current(ctx context.Context) float64 {
	val, err := p.redis.Get(ctx, p.key).Result()
	if err != nil {
		return defaultMultiplier
	}
	m, err := strconv.ParseFloat(val, 64)
	if err != nil || m <= 0 {
		return defaultMultiplier
	}
	return m
}

// Set publishes a new multiplier. Used by ops tooling and demand monitors.
func (p *Provider) Set(ctx context.Context, multiplier float64) error {
	return p.redis.Set(ctx, p.key, strconv.FormatFloat(multiplier, 'f', -1, 64), 0).Err()
}
