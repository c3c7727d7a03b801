// Package events moves typed JSON messages through Redis Streams.
//
// A Publisher appends messages to a stream with XADD. A Consumer reads them
// through a consumer group and acknowledges a message only after its handler
// returns nil, which gives at-least-once delivery:
//
//	consumer, err := events.NewConsumer(client, cfg, func(ctx context.Context, e notifications.Event) error {
//		_, err := manager.HandleEvent(ctx, &e)
//		return err
//	}, events.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	g.Go(consumer.Run(ctx))
//
// Messages whose handler fails stay in the group's pending list and are
// reclaimed with XAUTOCLAIM once they have been idle for Config.ClaimIdle.
// After Config.MaxDeliveries failed attempts a message is copied to
// Config.DeadLetterStream and acknowledged.
// Messages that cannot be decoded are logged and acknowledged so they do not
// block the stream.
package events
