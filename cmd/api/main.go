package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petport/internal/bootstrap"
	"petport/internal/router"
)

// @title PetPort API
// @version 1.0
// @description Pasaporte digital de mascotas: perfiles, contactos de emergencia, fichas médicas, suscripciones, referidos y gifts.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "api")
	if err != nil {
		os.Stderr.WriteString("startup: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer app.Close()

	app.Options.Done = ctx.Done()
	h, err := router.NewRouter(app.Options)
	if err != nil {
		app.Log.Error("router init failed", map[string]any{"error": err})
		return
	}

	addr := ":" + app.Config.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Log.Info("starting server", map[string]any{"addr": addr, "postgres": app.DB != nil})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			app.Log.Error("server error", map[string]any{"error": err})
		}
		return
	case <-ctx.Done():
	}

	app.Log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Log.Error("graceful shutdown failed", map[string]any{"error": err})
	}
}
