package main

import (
	"github.com/dmitrymomot/notifyhub/pkg/config"
	"github.com/dmitrymomot/notifyhub/pkg/downstream"
	"github.com/dmitrymomot/notifyhub/pkg/events"
	"github.com/dmitrymomot/notifyhub/pkg/httpserver"
	"github.com/dmitrymomot/notifyhub/pkg/notifications"
	"github.com/dmitrymomot/notifyhub/pkg/pg"
	"github.com/dmitrymomot/notifyhub/pkg/redis"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"notifyhub"`
	LogLevel    string `env:"LOG_LEVEL"`
	// ConsumeEvents disables the stream consumer when false, leaving
	// POST /events as the only ingestion path.
	ConsumeEvents bool `env:"EVENTS_CONSUME" envDefault:"true"`
}

type configs struct {
	app           appConfig
	pg            pg.Config
	redis         redis.Config
	http          httpserver.Config
	notifications notifications.Config
	downstream    downstream.Config
	events        events.Config
}

func loadConfigs() (configs, error) {
	var c configs
	for _, load := range []func() error{
		func() error { return config.Load(&c.app) },
		func() error { return config.Load(&c.pg) },
		func() error { return config.Load(&c.redis) },
		func() error { return config.Load(&c.http) },
		func() error { return config.Load(&c.notifications) },
		func() error { return config.Load(&c.downstream) },
		func() error { return config.Load(&c.events) },
	} {
		if err := load(); err != nil {
			return configs{}, err
		}
	}
	return c, nil
}
