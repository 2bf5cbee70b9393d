package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jasonknight/space-mmo-sub002/cache"
	"go.uber.org/zap"
)

// InvalidationChannel is the pub/sub channel for a domain.
func InvalidationChannel(domain string) string {
	return "spacemmo:invalidate:" + domain
}

// Invalidator tells peer processes which cache keys a write touched. Each
// message is "<origin>|<key>"; a process ignores its own messages. Delivery
// is best effort. A nil *Invalidator does nothing.
type Invalidator struct {
	ps     cache.PubSub
	origin string
	logger *zap.Logger
}

// NewInvalidator returns an Invalidator with a fresh origin. A nil ps disables it.
func NewInvalidator(ps cache.PubSub, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{ps: ps, origin: uuid.NewString(), logger: logger}
}

// Origin identifies this process in messages.
func (i *Invalidator) Origin() string {
	if i == nil {
		return ""
	}
	return i.origin
}

// Publish announces that key in domain changed.
func (i *Invalidator) Publish(ctx context.Context, domain, key string) {
	if i == nil || i.ps == nil {
		return
	}
	if err := i.ps.Publish(ctx, InvalidationChannel(domain), i.origin+"|"+key); err != nil {
		i.logger.Warn("publish invalidation", zap.String("domain", domain), zap.String("key", key), zap.Error(err))
	}
}

// Listen calls drop for every key announced by another process until ctx is
// done or the returned stop is called.
func (i *Invalidator) Listen(ctx context.Context, domain string, drop func(key string)) (func(), error) {
	if i == nil || i.ps == nil {
		return func() {}, nil
	}
	msgs, cancel, err := i.ps.Subscribe(ctx, InvalidationChannel(domain))
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			origin, key, ok := strings.Cut(msg.Payload, "|")
			if !ok {
				i.logger.Warn("malformed invalidation", zap.String("payload", msg.Payload))
				continue
			}
			if origin == i.origin {
				continue
			}
			drop(key)
		}
	}()
	return func() {
		cancel()
		<-done
	}, nil
}
