// Package runtime owns process lifecycle: configuration, database,
// application wiring, and the HTTP server.
package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	app "github.com/fueltag-io/fueltag/internal/app"
	"github.com/fueltag-io/fueltag/internal/app/httpapi"
	"github.com/fueltag-io/fueltag/internal/app/storage/postgres"
	"github.com/fueltag-io/fueltag/internal/config"
	"github.com/fueltag-io/fueltag/internal/platform/database"
	"github.com/fueltag-io/fueltag/internal/platform/migrations"
	"github.com/fueltag-io/fueltag/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	app        *app.Application
	httpServer *http.Server
	db         *sql.DB
}

// NewApplication constructs a fully wired application from configuration.
// When the database DSN is empty the service runs on in-memory stores, which
// is intended for local development only.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	var (
		stores app.Stores
		db     *sql.DB
	)
	if cfg.Database.DSN != "" {
		opened, err := database.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := migrations.Apply(ctx, opened); err != nil {
			opened.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		store := postgres.New(opened)
		stores = app.Stores{
			Users:         store,
			Vehicles:      store,
			Ledger:        store,
			Registrations: store,
		}
		db = opened
	} else {
		log.Warn("database DSN not set; using in-memory stores")
	}

	application, err := app.New(stores, log)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("build application: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           httpapi.NewHandler(application),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		app:        application,
		httpServer: httpSrv,
		db:         db,
	}, nil
}

// App exposes the composed application, mainly for tests.
func (a *Application) App() *app.Application {
	return a.app
}

// Run starts the managed services and the HTTP server, then blocks until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server, the managed services, and the
// database connection.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := a.app.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error stopping services")
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}
