// Package events fans job lifecycle, log and progress events out to any
// number of subscribers.
package events

import "sync"

// Event types.
const (
	TypeStatus         = "status"
	TypeLog            = "log"
	TypeLogError       = "log-error"
	TypeProgressStart  = "progress-start"
	TypeProgressUpdate = "progress-update"
	TypeProgressStop   = "progress-stop"
)

// Job states carried by status events.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Event is one broadcast message. Data is JSON encodable.
type Event struct {
	Type string
	Data interface{}
}

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 256

// Subscription receives events until it is unsubscribed.
type Subscription struct {
	C  <-chan Event
	ch chan Event
	id uint64
}

// Broadcaster delivers every published event to every subscriber in
// registration order. Publish never blocks: a subscriber whose queue is
// full misses the event.
type Broadcaster struct {
	mu     sync.Mutex
	next   uint64
	subs   []*Subscription
	buffer int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{buffer: DefaultBuffer}
}

// Subscribe registers a new subscriber.
func (b *Broadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	ch := make(chan Event, b.buffer)
	s := &Subscription{C: ch, ch: ch, id: b.next}
	b.subs = append(b.subs, s)
	return s
}

// Unsubscribe removes s and closes its channel. Calling it twice is a no-op.
func (b *Broadcaster) Unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == s.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Publish sends an event to all current subscribers.
func (b *Broadcaster) Publish(eventType string, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ev := Event{Type: eventType, Data: data}
	for _, s := range b.subs {
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// Subscribers reports how many subscribers are registered.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
