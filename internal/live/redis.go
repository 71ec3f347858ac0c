package live

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"service-dispatch/internal/logx"
)

const channelPrefix = "live:"

// RedisBroker publishes events through Redis so that every instance delivers them
// to its own local Hub.
type RedisBroker struct {
	client *redis.Client
	hub    *Hub
	logger logx.Logger
}

// NewRedisBroker creates a broker that relays Redis messages into hub.
func NewRedisBroker(client *redis.Client, hub *Hub, logger logx.Logger) *RedisBroker {
	if logger == nil {
		logger = logx.Nop()
	}
	return &RedisBroker{client: client, hub: hub, logger: logger}
}

// Publish sends ev to all instances.
func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := ev.Encode()
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, channelPrefix+ev.Topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", ev.Topic, err)
	}
	return nil
}

// Run relays Redis messages into the local hub until ctx is done.
func (b *RedisBroker) Run(ctx context.Context) error {
	ps := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer func() {
		if err := ps.Close(); err != nil {
			b.logger.Warn("redis pubsub close failed", logx.Err(err))
		}
	}()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	b.logger.Info("live broker subscribed", logx.String("pattern", channelPrefix+"*"))

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.hub.Deliver(strings.TrimPrefix(msg.Channel, channelPrefix), []byte(msg.Payload))
		}
	}
}
