package bridge

import (
	"encoding/json"
	"sync"
)

// Delivery is one host callback waiting to be handed to a Sink.
type Delivery struct {
	ID      CallbackID
	Payload json.RawMessage
}

// Queue is an unbounded FIFO of deliveries. Transports push from the goroutine
// that receives host traffic and drain from a separate one, so a handler that
// issues its own host calls cannot stall the receiver.
type Queue struct {
	mu     sync.Mutex
	items  []Delivery
	signal chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Push appends d. It never blocks.
func (q *Queue) Push(d Delivery) {
	q.mu.Lock()
	q.items = append(q.items, d)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pop blocks until a delivery is available or done is closed.
func (q *Queue) Pop(done <-chan struct{}) (Delivery, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			d := q.items[0]
			q.items[0] = Delivery{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return d, true
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-done:
			return Delivery{}, false
		}
	}
}

// Drain delivers queued items to the sink returned by sink() until done closes.
func (q *Queue) Drain(done <-chan struct{}, sink func() Sink) {
	for {
		d, ok := q.Pop(done)
		if !ok {
			return
		}
		if s := sink(); s != nil {
			s(d.ID, d.Payload)
		}
	}
}
