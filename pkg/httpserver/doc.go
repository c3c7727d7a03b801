// Package httpserver runs an http.Server with graceful shutdown and serves
// health checks.
//
// Run binds the listener and blocks until its context is cancelled or
// Shutdown is called. When shutdown starts, the base context of every
// request is cancelled so long-lived responses such as event streams end and
// the server can drain within the shutdown timeout.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	r := chi.NewRouter()
//	r.Get("/health/live", httpserver.LivenessHandler())
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, 2*time.Second,
//		httpserver.HealthCheck{Name: "postgres", Check: pg.Healthcheck(pool)},
//	))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Listen errors are wrapped with ErrStart and shutdown errors with
// ErrShutdown.
package httpserver
