package sdk

import (
	"context"

	"go.uber.org/zap"
)

// Logger is the minimal logging surface the library needs. *zap.SugaredLogger
// satisfies it.
type Logger interface {
	Debugf(template string, args ...any)
	Infof(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
}

type contextLoggerKeyT string

// ContextLoggerKey carries a Logger through a context.
const ContextLoggerKey = contextLoggerKeyT("arcpay-logger")

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, ContextLoggerKey, logger)
}

// LoggerFrom extracts the logger from the context, falling back to a
// production zap logger when none is set.
func LoggerFrom(ctx context.Context) Logger {
	value := ctx.Value(ContextLoggerKey)
	logger, ok := value.(Logger)
	if !ok {
		logger = zap.Must(zap.NewProduction()).Sugar()
	}

	return logger
}
