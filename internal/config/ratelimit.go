package config

import "time"

// RateLimitConfig drives the Redis token bucket in front of the public
// endpoints. Capacity tokens are available up front and RefillTokens are
// added every RefillInterval.
type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
	Capacity       int           `yaml:"capacity" env:"RATE_LIMIT_CAPACITY"`
	RefillTokens   int           `yaml:"refill_tokens" env:"RATE_LIMIT_REFILL_TOKENS"`
	RefillInterval time.Duration `yaml:"refill_interval" env:"RATE_LIMIT_REFILL_INTERVAL"`
	TTL            time.Duration `yaml:"ttl" env:"RATE_LIMIT_TTL"`
	KeyStrategy    string        `yaml:"key_strategy" env:"RATE_LIMIT_KEY_STRATEGY"`
	Prefix         string        `yaml:"prefix" env:"RATE_LIMIT_PREFIX"`
	Debug          bool          `yaml:"debug" env:"RATE_LIMIT_DEBUG"`
}

func defaultRateLimit() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        true,
		Capacity:       60,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

// normalize clamps out-of-range values. The bucket key must outlive a few
// refill intervals or an idle client would always see a full bucket.
func (c RateLimitConfig) normalize() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	if c.Prefix == "" {
		c.Prefix = "rl"
	}
	return c
}
