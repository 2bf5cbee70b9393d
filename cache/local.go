package cache

import (
	"context"
	"sync"
	"sync/atomic"
)

type localSub struct {
	ch       chan *Message
	done     chan struct{}
	channels []string
	once     sync.Once
}

// LocalPubSub is an in-process fan-out PubSub. Delivery never blocks the
// publisher: a message for a full subscriber buffer is dropped and counted.
type LocalPubSub struct {
	mu      sync.RWMutex
	subs    map[string]map[*localSub]struct{}
	bufSize int
	dropped atomic.Int64
}

// NewLocalPubSub creates a LocalPubSub with the given per-subscriber buffer.
func NewLocalPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = defaultBuf
	}
	return &LocalPubSub{
		subs:    make(map[string]map[*localSub]struct{}),
		bufSize: bufSize,
	}
}

func (ps *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &Message{Channel: channel, Payload: message}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for s := range ps.subs[channel] {
		select {
		case s.ch <- msg:
		default:
			ps.dropped.Add(1)
		}
	}
	return nil
}

func (ps *LocalPubSub) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	s := &localSub{
		ch:       make(chan *Message, ps.bufSize),
		done:     make(chan struct{}),
		channels: channels,
	}

	ps.mu.Lock()
	for _, c := range channels {
		set, ok := ps.subs[c]
		if !ok {
			set = make(map[*localSub]struct{})
			ps.subs[c] = set
		}
		set[s] = struct{}{}
	}
	ps.mu.Unlock()

	cancel := func() { ps.unsubscribe(s) }
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-s.done:
		}
	}()
	return s.ch, cancel, nil
}

func (ps *LocalPubSub) unsubscribe(s *localSub) {
	s.once.Do(func() {
		ps.mu.Lock()
		defer ps.mu.Unlock()
		for _, c := range s.channels {
			delete(ps.subs[c], s)
			if len(ps.subs[c]) == 0 {
				delete(ps.subs, c)
			}
		}
		close(s.ch)
		close(s.done)
	})
}

// Dropped reports how many messages were discarded on full buffers.
func (ps *LocalPubSub) Dropped() int64 { return ps.dropped.Load() }

// Close unsubscribes everyone.
func (ps *LocalPubSub) Close() error {
	ps.mu.RLock()
	var all []*localSub
	seen := make(map[*localSub]struct{})
	for _, set := range ps.subs {
		for s := range set {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				all = append(all, s)
			}
		}
	}
	ps.mu.RUnlock()
	for _, s := range all {
		ps.unsubscribe(s)
	}
	return nil
}
