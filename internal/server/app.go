// Package server wires the board server together: repositories, services,
// the realtime hub, the REST API and the gRPC health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"github.com/dmitrijs2005/quickcollab/internal/server/config"
	"github.com/dmitrijs2005/quickcollab/internal/server/httpapi"
	"github.com/dmitrijs2005/quickcollab/internal/server/realtime"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/quickcollab/internal/server/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/quickcollab/internal/server/grpc"
)

const sessionPurgeInterval = time.Hour

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	redis  *redis.Client
	hub    *realtime.Hub
	users  *services.UserService
	http   *httpapi.Server
	health *gs.HealthServer
}

// NewApp opens the storage selected by the config, migrates it and builds
// every server component.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := openRepositories(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, repos: repos}

	var broker realtime.Broker
	if c.RedisAddr != "" {
		rc, err := newRedisClient(c.RedisAddr)
		if err != nil {
			_ = repos.Close()
			return nil, err
		}
		if err := rc.Ping(ctx).Err(); err != nil {
			_ = rc.Close()
			_ = repos.Close()
			return nil, fmt.Errorf("redis ping error: %w", err)
		}
		app.redis = rc
		broker = realtime.NewRedisBroker(rc, realtime.DefaultChannel, logger)
	}

	svc := httpapi.Services{
		Users:    services.NewUserService(repos, c),
		Boards:   services.NewBoardService(repos),
		Tasks:    services.NewTaskService(repos),
		Comments: services.NewCommentService(repos),
	}
	app.users = svc.Users
	app.hub = realtime.NewHub(svc.Boards, broker, logger, realtime.WithVersions(svc.Tasks))
	app.http = httpapi.NewServer(c.HTTPAddr, c.AllowOrigins, svc, app.hub, logger)
	app.health = gs.NewHealthServer(c.GRPCAddr, logger, app.ready)

	return app, nil
}

func openRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		return repomanager.NewInMemoryRepositoryManager(), nil
	}
	m, err := repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	return m, nil
}

// newRedisClient accepts a redis:// URL or a bare host:port.
func newRedisClient(addr string) (*redis.Client, error) {
	if !strings.Contains(addr, "://") {
		return redis.NewClient(&redis.Options{Addr: addr}), nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("redis address: %w", err)
	}
	return redis.NewClient(opts), nil
}

// ready backs the health endpoint.
func (app *App) ready(ctx context.Context) error {
	if err := app.repos.Ping(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if app.redis != nil {
		if err := app.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (app *App) purgeSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := app.users.PurgeSessions(ctx)
			if err != nil {
				app.logger.Error(ctx, "session purge failed", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged sessions", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Run serves until ctx is cancelled or a server fails, then releases the
// storage and Redis connections.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		app.purgeSessions(ctx, sessionPurgeInterval)
		return nil
	})
	g.Go(func() error { return app.http.Run(ctx) })
	g.Go(func() error { return app.health.Run(ctx) })

	err := g.Wait()

	if app.redis != nil {
		err = errors.Join(err, app.redis.Close())
	}
	err = errors.Join(err, app.repos.Close())
	app.logger.Info(context.Background(), "App stopped")
	return err
}
