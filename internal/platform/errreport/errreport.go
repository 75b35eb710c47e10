package errreport

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

var enabled atomic.Bool

type Options struct {
	DSN         string
	Environment string
	Release     string
}

// Init inicializa el cliente global de Sentry. DSN vacío => deshabilitado.
func Init(opts Options) error {
	if opts.DSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		EnableTracing:    false,
		AttachStacktrace: true,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	enabled.Store(true)
	return nil
}

func Enabled() bool { return enabled.Load() }

// Capture reporta err con tags opcionales.
func Capture(ctx context.Context, err error, tags map[string]string) {
	if err == nil || !Enabled() {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}

// CapturePanic reporta un valor recuperado de panic.
func CapturePanic(ctx context.Context, rec any, tags map[string]string) {
	if rec == nil || !Enabled() {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.Recover(rec)
	})
}

// Flush espera a que se envíen los eventos pendientes.
func Flush(timeout time.Duration) {
	if !Enabled() {
		return
	}
	sentry.Flush(timeout)
}
