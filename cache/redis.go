package cache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisPubSub wraps the Redis PubSub client.
type RedisPubSub struct {
	client  *goredis.Client
	bufSize int
}

// NewRedisPubSub connects to cfg.RedisAddr and pings it.
func NewRedisPubSub(cfg Config) (*RedisPubSub, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	buf := cfg.LocalPubSubBuf
	if buf <= 0 {
		buf = defaultBuf
	}
	return &RedisPubSub{client: client, bufSize: buf}, nil
}

func (r *RedisPubSub) Publish(ctx context.Context, channel, message string) error {
	return r.client.Publish(ctx, channel, message).Err()
}

func (r *RedisPubSub) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	ps := r.client.Subscribe(ctx, channels...)
	// Wait for the subscription confirmation so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}
	out := make(chan *Message, r.bufSize)
	go func() {
		defer close(out)
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = ps.Close()
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				out <- &Message{Channel: msg.Channel, Payload: msg.Payload}
			}
		}
	}()
	return out, func() { _ = ps.Close() }, nil
}

func (r *RedisPubSub) Close() error {
	return r.client.Close()
}
