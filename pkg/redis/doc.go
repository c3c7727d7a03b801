// Package redis connects to Redis with go-redis/v9.
//
// Connect retries until the server answers a PING and Healthcheck adapts the
// client to the readiness check signature used by httpserver. Stream
// consumers and publishers built on the returned client live in pkg/events.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Config is read from REDIS_* environment variables.
package redis
