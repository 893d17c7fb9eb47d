package events

import "sync"

// Queue is an unbounded multi-producer, single-consumer event queue.
// Emit never blocks, so a slow consumer cannot stall producers.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []Event
	closed bool
	out    chan Event
}

// NewQueue creates a queue and starts the goroutine that feeds C().
func NewQueue() *Queue {
	q := &Queue{out: make(chan Event)}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

// Emit appends ev to the queue. Events emitted after Close are dropped.
func (q *Queue) Emit(ev Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.buf = append(q.buf, ev)
	q.mu.Unlock()
	q.cond.Signal()
}

// Close marks the end of input. C() is closed once every queued event has
// been delivered. Close is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Signal()
}

// C returns the channel the consumer reads from.
func (q *Queue) C() <-chan Event {
	return q.out
}

func (q *Queue) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.buf) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.buf) == 0 {
			q.mu.Unlock()
			return
		}
		batch := q.buf
		q.buf = nil
		q.mu.Unlock()

		for _, ev := range batch {
			q.out <- ev
		}
	}
}
