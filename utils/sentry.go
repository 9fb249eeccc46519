package utils

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
)

// InitSentry включает отправку ошибок. Перед завершением процесса нужно вызвать sentry.Flush.
func InitSentry(dsn, env, version string, tracesSampleRate float64) error {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          "meela-intake@" + version,
		TracesSampleRate: tracesSampleRate,
		SendDefaultPII:   false,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	return nil
}

// CaptureError отправляет ошибку через хаб запроса, если он есть в ctx, иначе через общий.
func CaptureError(ctx context.Context, err error, extras map[string]interface{}) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtras(extras)
		hub.CaptureException(err)
	})
}
