// Package logger wires zap into the gateway and carries a per-request
// correlation id through gin and context.Context.
package logger

import (
	"context"
	"strings"
	"time"

	"github.com/contractportal/portal/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CorrelationIDHeader is read from incoming requests and echoed on responses.
const CorrelationIDHeader = "X-Correlation-ID"

const correlationKey = "correlationID"

type ctxKey struct{}

// Init builds the process logger from the log settings and installs it as the
// zap global.
func Init(settings config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(settings.Format, "console") {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if settings.Level != "" {
		level, err := zapcore.ParseLevel(settings.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(l)
	return l, nil
}

// Middleware assigns a correlation id to each request and logs its outcome.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(correlationKey, id)
		c.Writer.Header().Set(CorrelationIDHeader, id)
		c.Request = c.Request.WithContext(WithCorrelationID(c.Request.Context(), id))

		c.Next()

		fields := []zap.Field{
			zap.String("correlation_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if outcome := c.GetString("outcome"); outcome != "" {
			fields = append(fields, zap.String("outcome", outcome))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			zap.L().Error("request", fields...)
		default:
			zap.L().Info("request", fields...)
		}
	}
}

// CorrelationID returns the id assigned by Middleware, or "" outside it.
func CorrelationID(c *gin.Context) string {
	return c.GetString(correlationKey)
}

// WithCorrelationID stores id in ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the global logger annotated with the request's correlation id.
func FromContext(ctx context.Context) *zap.Logger {
	l := zap.L()
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return l.With(zap.String("correlation_id", id))
	}
	return l
}
