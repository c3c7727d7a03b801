// Package broadcast provides type-safe in-process multicast.
//
// A MemoryBroadcaster delivers every message to all subscribers attached at
// the time of the Broadcast call. Delivery is non-blocking: when a
// subscriber's buffer is full the message is skipped for that subscriber
// only, and it keeps receiving later messages. Late subscribers never see
// earlier messages.
//
//	b := broadcast.NewMemoryBroadcaster[string](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	_ = b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"})
//
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Data)
//	}
//
// Subscribers are detached when their context is cancelled, when Close is
// called on them, or when the broadcaster itself is closed.
package broadcast
