package app

import (
	"context"
	"log/slog"
	"net/http"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/omniagentpay/application-layer-sub001/internal/config"
	"github.com/omniagentpay/application-layer-sub001/internal/database"
	"github.com/omniagentpay/application-layer-sub001/internal/store"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Server  *http.Server
	Intents *store.IntentStore
	Tracing *sdktrace.TracerProvider
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, intents *store.IntentStore, tracing *sdktrace.TracerProvider) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Intents: intents, Tracing: tracing}
}

// Shutdown stops the HTTP server, drains the write-through queue so in-flight
// durable writes finish, and flushes any buffered spans.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Server.Shutdown(ctx)
	a.Intents.Close()
	if a.Tracing != nil {
		if terr := a.Tracing.Shutdown(ctx); terr != nil && err == nil {
			err = terr
		}
	}
	return err
}

func RunMigrationOnly() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	return database.Migrate(db)
}
