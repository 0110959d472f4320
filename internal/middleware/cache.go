package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/seatplan/internal/config"
    "github.com/iliyamo/seatplan/internal/logger"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
        cw.buf.Write(b)
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// overflow reports whether the body outgrew the capture limit.
func (cw *captureWriter) overflow() bool {
    return cw.limit > 0 && cw.size > cw.limit
}

// cacheKeyFrom builds a stable cache key for the request under the current
// write generation.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context, gen int64) string {
    r := c.Request()
    method := r.Method
    route := c.Path()
    query := r.URL.RawQuery

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = append(parts, "route", route)
    case "method_route":
        parts = append(parts, "method", method, "route", route)
    case "route_query":
        parts = append(parts, "route", route, "q", query)
    default: // "route_query_user"
        parts = append(parts, "route", r.URL.Path, "q", query, "user", userID(c))
    }

    tail := strings.Join(parts[1:], ":")
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:g%d:%x", parts[0], gen, sum[:])
}

// cachedResponse is what a cache entry holds.  Only the content type is
// kept from the headers; everything under /v1 answers JSON.
type cachedResponse struct {
    Status      int    `json:"s"`
    ContentType string `json:"ct"`
    Body        []byte `json:"b"`
}

func encodePayload(status int, contentType string, body []byte) ([]byte, error) {
    return json.Marshal(cachedResponse{Status: status, ContentType: contentType, Body: body})
}

func decodePayload(bs []byte) (cachedResponse, bool) {
    var cr cachedResponse
    if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
        return cachedResponse{}, false
    }
    return cr, true
}

// NewRedisCache serves repeated reads from Redis for cfg.TTL.  Any successful
// request with a method outside cfg.Methods is treated as a write and bumps
// the generation, so the next read after a write always misses.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 2 * time.Second
    }
    maxBody := int64(cfg.MaxBodyBytes)
    genKey := cfg.GenerationKey()

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()

            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                if err := next(c); err != nil {
                    return err
                }
                if st := c.Response().Status; st >= 200 && st < 300 {
                    if err := rdb.Incr(context.WithoutCancel(ctx), genKey).Err(); err != nil {
                        logger.FromEcho(c).Warn("cache generation bump failed; reads may be stale until TTL",
                            zap.String("key", genKey), zap.Duration("ttl", ttl), zap.Error(err))
                    }
                }
                return nil
            }

            gen, err := rdb.Get(ctx, genKey).Int64()
            if err != nil && err != redis.Nil {
                return next(c)
            }
            key := cacheKeyFrom(cfg, c, gen)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if cr, ok := decodePayload(bs); ok {
                    h := c.Response().Header()
                    if cr.ContentType != "" {
                        h.Set(echo.HeaderContentType, cr.ContentType)
                    }
                    h.Set("X-Cache", "HIT")
                    c.Response().WriteHeader(cr.Status)
                    _, _ = c.Response().Write(cr.Body)
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            if cw.status == http.StatusOK && !cw.overflow() {
                if payload, err := encodePayload(cw.status, c.Response().Header().Get(echo.HeaderContentType), cw.buf.Bytes()); err == nil {
                    _ = rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err()
                }
            }
            return nil
        }
    }
}
