package feed

import "context"

// Publisher mirrors every generated quote to an external feed for
// downstream consumers. Publish errors never affect the broadcast
// pass; the scheduler logs and moves on.
type Publisher interface {
	Publish(ctx context.Context, symbol string, payload []byte) error
	Close() error
}

// NopPublisher is the default when no feed is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NopPublisher) Close() error                                  { return nil }
