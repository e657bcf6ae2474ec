package middleware

import (
	"net/http"
	"time"

	gantry "github.com/gantrykit/gantry"
	"github.com/gantrykit/gantry/logger"
)

// LoggingConfig tunes the request logging middleware.
type LoggingConfig struct {
	// ExcludePaths lists exact paths that are never logged, typically
	// health and metrics probes.
	ExcludePaths []string
}

// DefaultLoggingConfig excludes the built-in probe endpoints.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		ExcludePaths: []string{"/_/health", "/_/metrics"},
	}
}

// Logging logs one line per completed request with the default config.
func Logging(log gantry.Logger) gantry.Middleware {
	return LoggingWithConfig(log, DefaultLoggingConfig())
}

// LoggingWithConfig logs method, path, status and latency per request.
func LoggingWithConfig(log gantry.Logger, cfg LoggingConfig) gantry.Middleware {
	excluded := make(map[string]bool, len(cfg.ExcludePaths))
	for _, path := range cfg.ExcludePaths {
		excluded[path] = true
	}

	return func(next gantry.Handler) gantry.Handler {
		return func(ctx gantry.Context) error {
			if excluded[ctx.Request().URL.Path] {
				return next(ctx)
			}

			start := time.Now()
			err := next(ctx)

			status := ctx.StatusCode()
			if status == 0 {
				status = http.StatusOK
			}

			fields := []logger.Field{
				logger.String("method", ctx.Request().Method),
				logger.String("path", ctx.Request().URL.Path),
				logger.Int("status", status),
				logger.Duration("duration", time.Since(start)),
			}

			if id := GetRequestID(ctx); id != "" {
				fields = append(fields, logger.String("request_id", id))
			}

			if err != nil {
				fields = append(fields, logger.Err(err))
				log.Error("request failed", fields...)
			} else {
				log.Info("request completed", fields...)
			}

			return err
		}
	}
}
