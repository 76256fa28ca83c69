package local

import (
	"context"
	"sync"
)

// LocalMessage is an in-process pub/sub message.
type LocalMessage struct {
	Channel string
	Payload string
}

type subscription struct {
	ch       chan *LocalMessage
	channels []string
}

// LocalPubSub fans messages out to in-process subscribers. Slow
// subscribers lose messages rather than block publishers.
type LocalPubSub struct {
	mu      sync.RWMutex
	byTopic map[string]map[*subscription]struct{}
	bufSize int
}

func NewPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &LocalPubSub{
		byTopic: make(map[string]map[*subscription]struct{}),
		bufSize: bufSize,
	}
}

func (ps *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &LocalMessage{Channel: channel, Payload: message}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for s := range ps.byTopic[channel] {
		select {
		case s.ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe listens on channels until cancel is called or ctx ends.
func (ps *LocalPubSub) Subscribe(ctx context.Context, channels ...string) (<-chan *LocalMessage, func(), error) {
	s := &subscription{ch: make(chan *LocalMessage, ps.bufSize), channels: channels}
	ps.mu.Lock()
	for _, c := range channels {
		if ps.byTopic[c] == nil {
			ps.byTopic[c] = make(map[*subscription]struct{})
		}
		ps.byTopic[c][s] = struct{}{}
	}
	ps.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			ps.mu.Lock()
			for _, c := range s.channels {
				delete(ps.byTopic[c], s)
				if len(ps.byTopic[c]) == 0 {
					delete(ps.byTopic, c)
				}
			}
			close(s.ch)
			ps.mu.Unlock()
			close(done)
		})
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-done:
			}
		}()
	}
	return s.ch, cancel, nil
}
