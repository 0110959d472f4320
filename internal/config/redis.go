package config

// Redis backs the rate limiter and the response cache.  Both degrade to
// pass-through when the client is nil, so a failed ping at startup only
// costs those features.

import (
    "context"
    "crypto/tls"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig carries connection settings for go-redis.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads REDIS_HOST/REDIS_PORT (or the REDIS_ADDR shorthand),
// REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func LoadRedisConfig() RedisConfig {
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
        TLS:      envBool("REDIS_TLS", false),
    }
}

// NewRedisClient dials Redis and pings it with a short timeout.  It returns
// nil when the server is unreachable.
func NewRedisClient(rc RedisConfig) *redis.Client {
    opts := &redis.Options{
        Addr:     rc.Addr,
        Password: rc.Password,
        DB:       rc.DB,
    }
    if rc.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
