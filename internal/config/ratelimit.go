package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitConfig drives the Redis token bucket in front of /v1.  Login
// attempts get their own, stricter bucket which falls back to an in-process
// limiter when Redis is unreachable.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool

    LoginPerMinute int // sustained login attempts per client
    LoginBurst     int
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 120),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 2),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "seatplan:rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
        LoginPerMinute: envInt("RATE_LIMIT_LOGIN_PER_MIN", 10),
        LoginBurst:     envInt("RATE_LIMIT_LOGIN_BURST", 5),
    }
    if b := envInt("RATE_LIMIT_BURST", -1); b > 0 {
        def.Capacity = b
    }
    if def.Capacity < 1 {
        def.Capacity = 1
    }
    if def.RefillTokens < 1 {
        def.RefillTokens = 1
    }
    if def.RefillInterval <= 0 {
        def.RefillInterval = time.Second
    }
    if def.LoginPerMinute < 1 {
        def.LoginPerMinute = 1
    }
    if def.LoginBurst < 1 {
        def.LoginBurst = 1
    }
    // keys must outlive a full refill or the bucket resets early
    if minTTL := 5 * def.RefillInterval; def.TTL < minTTL {
        def.TTL = minTTL
    }
    return def
}

func envStr(k, d string) string {
    if v := strings.TrimSpace(os.Getenv(k)); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    if dur, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k))); err == nil {
        return dur
    }
    return d
}
