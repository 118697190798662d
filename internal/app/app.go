package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/restomesh/kds-sync/internal/dal/orderstore"
	"github.com/restomesh/kds-sync/internal/otel"
	"github.com/restomesh/kds-sync/internal/service/services/sessionsvc"
	httptransport "github.com/restomesh/kds-sync/internal/transport/http"
)

// App represents the application.
type App struct {
	manager        *sessionsvc.Manager
	transport      *httptransport.HTTPTransport
	storeClient    *orderstore.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application. The push channel and the
// reconciliation engine are not created here: both are scoped to an
// authenticated session and come up at login.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	storeClient := orderstore.MustNewClient()
	manager := sessionsvc.NewManager(storeClient)

	transport := httptransport.NewHTTPTransport(manager, storeClient)
	transport.RegisterRoutes()

	return &App{
		manager:        manager,
		transport:      transport,
		storeClient:    storeClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.manager.Logout(); err != nil && !errors.Is(err, sessionsvc.ErrNoSession) {
		slog.Error("Session teardown error", "error", err)
	}

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	slog.Info("Application shutdown complete")
}
