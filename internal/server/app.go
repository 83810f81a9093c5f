// Package server wires configuration, storage, the account service and the
// HTTP API together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/logging"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/config"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/events"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/services"
)

const sessionPurgeInterval = 10 * time.Minute

// sessionPurger is implemented by stores that do not expire sessions on
// their own.
type sessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	publisher   events.Publisher
	userService *services.UserService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogFormat, os.Stdout)

	repos, err := repomanager.New(ctx, repomanager.Options{DSN: c.DatabaseDSN, RedisAddr: c.RedisAddr})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	publisher := events.New(c.KafkaBrokers, c.KafkaTopic)
	us := services.NewUserService(repos, publisher, logger, c)

	return &App{config: c, logger: logger, repos: repos, publisher: publisher, userService: us}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config, app.logger, app.userService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) purgeSessions(ctx context.Context, p sessionPurger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpiredSessions(ctx)
			if err != nil {
				app.logger.Warn(ctx, "session purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}

// Run blocks until the HTTP server stops, then releases store and broker
// connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if p, ok := app.repos.(sessionPurger); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.purgeSessions(ctx, p)
		}()
	}

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := app.publisher.Close(); err != nil {
		app.logger.Error(closeCtx, "error closing event publisher", "error", err)
	}
	if err := app.repos.Close(closeCtx); err != nil {
		app.logger.Error(closeCtx, "error closing storage", "error", err)
	}

	app.logger.Info(closeCtx, "App stopped")
}
