// Package notify fans change events out to in-process subscribers, so readers
// of derived views can refresh on writes instead of polling.
package notify

import (
	"sync"
	"time"
)

// Topic names the entity family that changed.
type Topic string

const (
	Products  Topic = "products"
	Purchases Topic = "purchases"
	Sales     Topic = "sales"
	Bills     Topic = "bills"
)

// Event is published after a write has committed.
type Event struct {
	Topic Topic     `json:"topic"`
	ID    uint      `json:"id,omitempty"`
	At    time.Time `json:"at"`
}

const subscriberBuffer = 16

// Broker delivers events to every current subscriber. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]struct{})}
}

// Hub is the process-wide broker used by the HTTP layer.
var Hub = NewBroker()

// Subscribe returns a channel of events and a func that unsubscribes and closes it.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
}

// Publish sends ev to every subscriber that has room for it.
func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close disconnects every subscriber; later Subscribe calls get a closed channel.
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
