package session

import (
	"sync"

	"scriptstudio/internal/workflow"
)

const subscriberBuffer = 32

// Broker fans workflow snapshots out to subscribers. A subscriber that falls
// behind by more than its buffer is dropped and its channel closed.
type Broker struct {
	mu     sync.Mutex
	subs   map[chan workflow.Snapshot]struct{}
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan workflow.Snapshot]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel func is safe to
// call more than once.
func (b *Broker) Subscribe() (<-chan workflow.Snapshot, func()) {
	ch := make(chan workflow.Snapshot, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	return ch, func() { b.remove(ch) }
}

// Publish never blocks.
func (b *Broker) Publish(s workflow.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
			delete(b.subs, ch)
			close(ch)
		}
	}
}

// Close disconnects every subscriber.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broker) remove(ch chan workflow.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}
