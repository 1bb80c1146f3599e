package realtime

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel shared by all instances.
const DefaultChannel = "quickcollab:realtime"

// RedisBroker fans envelopes out between instances over Redis pub/sub.
type RedisBroker struct {
	rc      *redis.Client
	channel string
	log     logging.Logger
	// retryDelay is the pause before resubscribing after the subscription
	// channel closed.
	retryDelay time.Duration
}

func NewRedisBroker(rc *redis.Client, channel string, log logging.Logger) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{rc: rc, channel: channel, log: log.With("component", "redis-broker"), retryDelay: time.Second}
}

func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	payload, err := sonic.ConfigStd.MarshalToString(env)
	if err != nil {
		return err
	}
	return b.rc.Publish(ctx, b.channel, payload).Err()
}

// Subscribe listens on the channel and resubscribes whenever the
// subscription drops, until ctx is done.
func (b *RedisBroker) Subscribe(ctx context.Context, deliver func(Envelope)) {
	for {
		sub := b.rc.Subscribe(ctx, b.channel)
		b.consume(ctx, sub.Channel(), deliver)
		_ = sub.Close()

		if ctx.Err() != nil {
			return
		}
		b.log.Error(ctx, "pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.retryDelay):
		}
	}
}

func (b *RedisBroker) consume(ctx context.Context, ch <-chan *redis.Message, deliver func(Envelope)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env Envelope
			if err := sonic.ConfigStd.UnmarshalFromString(msg.Payload, &env); err != nil {
				b.log.Error(ctx, "unable to parse envelope", "error", err)
				continue
			}
			deliver(env)
		}
	}
}
