package realtime

import (
	"context"
	"sync"
	"time"
)

// Event types pushed to listening clients.
const (
	EventSubmissionChanged = "submission-change"
	EventProgressAppended  = "progress-append"
	EventPaymentRecorded   = "payment-recorded"
	EventStatusChanged     = "status-change"
)

// Message carries one incremental update for a submission owner. Messages are
// fanned out to the owner's listeners and to every admin listener.
type Message struct {
	OwnerID   string
	EventType string
	Reference string
	Status    string
	Timestamp time.Time
}

// Dispatcher fans realtime messages out to per-user subscribers.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*subscriber
	admins      map[int64]*subscriber
	nextID      int64
	bufferSize  int
}

type subscriber struct {
	id     int64
	stream chan Message
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subscribers: make(map[string]map[int64]*subscriber),
		admins:      make(map[int64]*subscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a listener for the owner's events. The subscription is
// torn down when ctx is cancelled or the returned cancel func is called.
func (d *Dispatcher) Subscribe(ctx context.Context, ownerID string) (<-chan Message, func()) {
	if ownerID == "" {
		ch := make(chan Message)
		close(ch)
		return ch, func() {}
	}
	sub := &subscriber{
		id:     d.nextSequence(),
		stream: make(chan Message, d.bufferSize),
	}
	d.mu.Lock()
	if _, ok := d.subscribers[ownerID]; !ok {
		d.subscribers[ownerID] = make(map[int64]*subscriber)
	}
	d.subscribers[ownerID][sub.id] = sub
	d.mu.Unlock()

	cleanup := func() {
		d.mu.Lock()
		if owned := d.subscribers[ownerID]; owned != nil {
			delete(owned, sub.id)
			if len(owned) == 0 {
				delete(d.subscribers, ownerID)
			}
		}
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return sub.stream, cleanup
}

// SubscribeAll registers an admin listener receiving every event.
func (d *Dispatcher) SubscribeAll(ctx context.Context) (<-chan Message, func()) {
	sub := &subscriber{
		id:     d.nextSequence(),
		stream: make(chan Message, d.bufferSize),
	}
	d.mu.Lock()
	d.admins[sub.id] = sub
	d.mu.Unlock()

	cleanup := func() {
		d.mu.Lock()
		delete(d.admins, sub.id)
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return sub.stream, cleanup
}

// Publish delivers the message to the owner's listeners and all admin
// listeners. Slow consumers drop messages rather than block the publisher.
func (d *Dispatcher) Publish(message Message) {
	if message.OwnerID == "" || message.EventType == "" {
		return
	}
	d.mu.RLock()
	targets := make([]*subscriber, 0, len(d.admins))
	for _, sub := range d.subscribers[message.OwnerID] {
		targets = append(targets, sub)
	}
	for _, sub := range d.admins {
		targets = append(targets, sub)
	}
	d.mu.RUnlock()
	for _, sub := range targets {
		select {
		case sub.stream <- message:
		default:
		}
	}
}

func (d *Dispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}
