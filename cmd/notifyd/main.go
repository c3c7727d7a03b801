// Command notifyd runs the notification service: it consumes domain events,
// stores per-user notifications and serves the inbox API with live streams.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/notifyhub/modules/inbox"
	"github.com/dmitrymomot/notifyhub/pkg/downstream"
	"github.com/dmitrymomot/notifyhub/pkg/events"
	"github.com/dmitrymomot/notifyhub/pkg/httpserver"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/pg"
	"github.com/dmitrymomot/notifyhub/pkg/redis"
	"github.com/dmitrymomot/notifyhub/pkg/requestid"
)

func main() {
	if err := run(); err != nil {
		slog.Error("notifyd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfigs()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.app.Env, cfg.app.ServiceName),
		logger.WithLevelName(cfg.app.LogLevel),
		logger.WithContextExtractors(requestid.LogExtractor),
	)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, cfg.pg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.pg, notifications.Migrations(), log); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, cfg.redis)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	courses, err := downstream.NewCourseClientFromConfig(cfg.downstream)
	if err != nil {
		return err
	}
	settings, err := downstream.NewSettingsClientFromConfig(cfg.downstream)
	if err != nil {
		return err
	}

	resolverOpts := []notifications.ResolverOption{
		notifications.WithProviderTimeout(cfg.notifications.ProviderTimeout),
		notifications.WithLookupConcurrency(cfg.notifications.LookupConcurrency),
		notifications.WithResolverLogger(log),
	}
	registry := notifications.NewRegistry(cfg.notifications.SubscriberBuffer)
	defer func() { _ = registry.Close() }()

	manager := notifications.NewManager(
		notifications.NewPostgresStorage(pool, notifications.WithStorageLogger(log)),
		notifications.WithManagerLogger(log),
		notifications.WithRecipientResolver(notifications.NewRecipientResolver(courses, resolverOpts...)),
		notifications.WithPreferenceResolver(notifications.NewPreferenceResolver(settings, resolverOpts...)),
		notifications.WithRegistry(registry),
	)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.RealIP, middleware.Recoverer)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, 2*time.Second,
		httpserver.HealthCheck{Name: "postgres", Check: pg.Healthcheck(pool)},
		httpserver.HealthCheck{Name: "redis", Check: redis.Healthcheck(rdb)},
	))
	r.Mount("/", inbox.NewHandler(manager, inbox.WithLogger(log)).Handle())

	var consumer *events.Consumer[notifications.Event]
	if cfg.app.ConsumeEvents {
		consumer, err = events.NewConsumer(rdb, cfg.events, handleEvent(manager), events.WithLogger(log))
		if err != nil {
			return err
		}
	}

	srv := httpserver.NewFromConfig(cfg.http, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx, r) })
	if consumer != nil {
		g.Go(consumer.Run(ctx))
	}

	log.InfoContext(ctx, "notifyd started", slog.String("env", cfg.app.Env))

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("notifyd stopped")
	return nil
}

// handleEvent adapts the manager to the stream consumer. Only storage
// failures are returned, so only those leave the message pending for retry.
func handleEvent(m *notifications.Manager) events.HandlerFunc[notifications.Event] {
	return func(ctx context.Context, e notifications.Event) error {
		_, err := m.HandleEvent(ctx, &e)
		return err
	}
}
