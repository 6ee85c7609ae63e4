package notifications

import (
	"context"
	"time"

	"go.uber.org/zap"
)

var logger = zap.NewNop().Sugar()

// SetLogger installs the application logger for async delivery errors.
func SetLogger(l *zap.SugaredLogger) {
	logger = l
}

// CallAsync runs a notification delivery off the request path with its
// own timeout. Failures are logged, never propagated: a missed push
// must not fail the mutation that triggered it.
func CallAsync(fn func(ctx context.Context) error, name string) {
	go func() {
		defer func() {
			if p := recover(); p != nil {
				logger.Errorw("notification panic", "name", name, "panic", p)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.Errorw("notification failed", "name", name, "error", err)
		}
	}()
}
