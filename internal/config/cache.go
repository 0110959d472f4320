package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is off.
// Every successful write bumps a generation counter stored under
// Prefix+":gen"; cached GET entries embed the generation in their key, so a
// write makes every older entry unreachable.  TTL therefore bounds how stale
// a polling client can get only for reads that raced a write.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
        TTL:          envDur("CACHE_TTL", 2*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query_user"),
        Prefix:       envStr("CACHE_PREFIX", "seatplan:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

// GenerationKey is the Redis key holding the current write generation.
func (c CacheConfig) GenerationKey() string {
    return c.Prefix + ":gen"
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(strings.ToUpper(p)); p != "" {
            m[p] = true
        }
    }
    return m
}
