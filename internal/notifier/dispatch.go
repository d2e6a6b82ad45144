package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const dispatchTimeout = 30 * time.Second

// Dispatch runs send in the background, detached from the request that
// triggered it. Failures are logged and otherwise dropped.
func Dispatch(log *zap.Logger, event string, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			log.Warn("notification failed", zap.String("event", event), zap.Error(err))
		}
	}()
}
