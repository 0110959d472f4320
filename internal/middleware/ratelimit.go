package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"
    "golang.org/x/time/rate"

    "github.com/iliyamo/seatplan/internal/config"
    "github.com/iliyamo/seatplan/internal/logger"
)

var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// bucket is one token-bucket policy evaluated in Redis.
type bucket struct {
    capacity int
    refill   int
    interval time.Duration
    ttl      time.Duration
}

// take consumes one token for key.  ok is false when Redis could not answer;
// callers then let the request through.
func (b bucket) take(c echo.Context, rdb *redis.Client, key string) (allowed bool, remaining, retryMs int64, ok bool) {
    args := []interface{}{
        time.Now().UnixMilli(),
        b.capacity,
        b.refill,
        b.interval.Milliseconds(),
        int64(b.ttl / time.Second),
    }
    vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
    if err != nil {
        logger.FromEcho(c).Warn("ratelimit redis error", zap.String("key", key), zap.Error(err))
        return false, 0, 0, false
    }
    arr, isArr := vals.([]interface{})
    if !isArr || len(arr) != 3 {
        logger.FromEcho(c).Warn("ratelimit unexpected script result", zap.String("key", key), zap.Any("result", vals))
        return false, 0, 0, false
    }
    if i, isInt := arr[0].(int64); isInt {
        allowed = i == 1
    } else {
        allowed = fmt.Sprint(arr[0]) == "1"
    }
    return allowed, asInt64(arr[1]), asInt64(arr[2]), true
}

func tooManyRequests(c echo.Context, retryMs int64) error {
    secs := int(math.Ceil(float64(retryMs) / 1000.0))
    if secs < 0 {
        secs = 0
    }
    c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
    return c.JSON(http.StatusTooManyRequests, echo.Map{
        "success":     false,
        "message":     "rate limit exceeded",
        "retry_after": secs,
    })
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewTokenBucket limits every request with a Redis token bucket keyed by
// cfg.KeyStrategy.  Without Redis, or when Redis fails, requests pass.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    b := bucket{capacity: cfg.Capacity, refill: cfg.RefillTokens, interval: cfg.RefillInterval, ttl: cfg.TTL}

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            allowed, remaining, retryMs, ok := b.take(c, rdb, key)
            if !ok {
                return next(c)
            }

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if cfg.Debug {
                c.Response().Header().Set("X-RateLimit-Key", key)
            }
            if !allowed {
                return tooManyRequests(c, retryMs)
            }
            return next(c)
        }
    }
}

// LoginLimiter throttles login attempts per client IP.  It uses a Redis
// bucket when Redis is available and an in-process x/time/rate limiter per
// IP otherwise, including when a Redis call fails.
func LoginLimiter(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return passThrough
    }
    perMin := cfg.LoginPerMinute
    if perMin <= 0 {
        perMin = 10
    }
    burst := cfg.LoginBurst
    if burst <= 0 {
        burst = 5
    }
    b := bucket{capacity: burst, refill: 1, interval: time.Minute / time.Duration(perMin), ttl: 10 * time.Minute}
    local := newIPLimiters(rate.Every(time.Minute/time.Duration(perMin)), burst)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ip := c.RealIP()
            if rdb != nil {
                allowed, _, retryMs, ok := b.take(c, rdb, cfg.Prefix+":login:"+ip)
                if ok {
                    if !allowed {
                        return tooManyRequests(c, retryMs)
                    }
                    return next(c)
                }
            }
            if r := local.get(ip).Reserve(); r.Delay() > 0 {
                d := r.Delay()
                r.Cancel()
                return tooManyRequests(c, d.Milliseconds())
            }
            return next(c)
        }
    }
}

// ipLimiters hands out one rate.Limiter per client IP.
type ipLimiters struct {
    mu    sync.Mutex
    every rate.Limit
    burst int
    byIP  map[string]*rate.Limiter
}

func newIPLimiters(every rate.Limit, burst int) *ipLimiters {
    return &ipLimiters{every: every, burst: burst, byIP: make(map[string]*rate.Limiter)}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
    l.mu.Lock()
    defer l.mu.Unlock()
    lim, ok := l.byIP[ip]
    if !ok {
        lim = rate.NewLimiter(l.every, l.burst)
        l.byIP[ip] = lim
    }
    return lim
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int32:
        return int64(t)
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := userID(c)
    route := c.Request().Method + " " + c.Path()

    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}
