// Package logger wires zap into the service and into echo requests.
package logger

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig holds logger configuration.
type LogConfig struct {
	Level       string
	Environment string
	ServiceName string
}

var log = zap.NewNop()

// Init builds the global logger.  Production environments get JSON output,
// everything else the coloured console encoder.
func Init(cfg LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	if cfg.Environment == "prod" || cfg.Environment == "production" {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build(zap.Fields(
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
	))
	if err != nil {
		return nil, err
	}
	log = l
	zap.ReplaceGlobals(l)
	return l, nil
}

// L returns the global logger.  It is a no-op logger until Init succeeds.
func L() *zap.Logger {
	return log
}

// Middleware logs one line per request and stores a request-scoped logger
// in the echo context under "logger".
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = c.Response().Header().Get(echo.HeaderXRequestID)
			}
			reqLog := log.With(zap.String("request_id", requestID))
			c.Set("logger", reqLog)

			err := next(c)
			if err != nil {
				// let echo write the error response so the status is final
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if uid := c.Get("user_id"); uid != nil {
				fields = append(fields, zap.Any("user_id", uid))
			}
			switch {
			case c.Response().Status >= 500:
				reqLog.Error("HTTP Request", fields...)
			case c.Response().Status >= 400:
				reqLog.Warn("HTTP Request", fields...)
			default:
				reqLog.Info("HTTP Request", fields...)
			}
			return nil
		}
	}
}

// FromEcho returns the request logger or the global one.
func FromEcho(c echo.Context) *zap.Logger {
	if l, ok := c.Get("logger").(*zap.Logger); ok {
		return l
	}
	return log
}
