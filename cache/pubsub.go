// Package cache carries best-effort notifications between service peers.
// The in-process implementation serves single-binary runs and tests; Redis
// connects processes on different hosts.
package cache

import (
	"context"
	"time"
)

// Message is a received pub/sub message.
type Message struct {
	Channel string
	Payload string
}

// PubSub defines channel publish/subscribe operations.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	// Subscribe delivers messages until cancel is called or ctx is done.
	// The returned channel is closed afterwards.
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
	Close() error
}

// Config selects and tunes the PubSub backend.
type Config struct {
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LocalPubSubBuf int
	DialTimeout    time.Duration
}

const defaultBuf = 256

// NewPubSub returns a PubSub backed by Redis if RedisAddr is set,
// otherwise an in-process one.
func NewPubSub(cfg Config) (PubSub, error) {
	if cfg.RedisAddr != "" {
		return NewRedisPubSub(cfg)
	}
	return NewLocalPubSub(cfg.LocalPubSubBuf), nil
}
