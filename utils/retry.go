package utils

import (
	"context"
	"time"

	"github.com/avast/retry-go/v5"
	"go.uber.org/zap"
)

// Connect вызывает connect до успеха или до исчерпания попыток.
func Connect[T any](ctx context.Context, logger *zap.Logger, name string, attempts int, delay time.Duration, connect func() (T, error)) (T, error) {
	var (
		result  T
		attempt int
	)
	err := retry.New(
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
		retry.Context(ctx),
	).Do(func() error {
		attempt++
		r, err := connect()
		if err != nil {
			logger.Warn("connection attempt failed",
				zap.String("service", name),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		result = r
		return nil
	})
	return result, err
}
