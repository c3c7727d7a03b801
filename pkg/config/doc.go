// Package config loads typed configuration structs from the process
// environment.
//
// Every component of the service declares its own Config struct with `env`
// and `envDefault` tags (see pg.Config, redis.Config, notifications.Config).
// Load parses such a struct with github.com/caarlos0/env/v11 after loading
// the default .env file once via github.com/joho/godotenv, and caches the
// result per type so that repeated loads are cheap and consistent.
//
//	var cfg notifications.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// Use LoadEnv to read additional .env files before the first Load, and Reset
// in tests after changing the environment.
package config
