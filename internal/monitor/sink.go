package monitor

import (
	"sync"
	"sync/atomic"
)

const defaultSubscriberBuffer = 64

// Sink fans alert events out to subscribers over bounded channels.
// Publishing never blocks: an event that cannot be delivered immediately is
// dropped and counted, so a slow or absent consumer cannot back-pressure
// the ingestion path.
type Sink struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan AlertEvent
	nextID      uint64
	buffer      int
	closed      bool

	dropped atomic.Uint64
}

// NewSink constructs a sink whose subscriber channels hold up to buffer events.
func NewSink(buffer int) *Sink {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Sink{
		subscribers: make(map[uint64]chan AlertEvent),
		buffer:      buffer,
	}
}

// Publish delivers an event to every subscriber that has room for it.
// With no subscribers attached the event is dropped and counted.
func (s *Sink) Publish(ev AlertEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || len(s.subscribers) == 0 {
		s.dropped.Add(1)
		return
	}

	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribe attaches a new consumer and returns its event channel together
// with a cancel func that detaches and closes it. A late subscriber does not
// receive past events.
func (s *Sink) Subscribe() (<-chan AlertEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan AlertEvent, s.buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if _, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(ch)
			}
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// Dropped reports how many events were discarded due to missing or full subscribers.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close detaches and closes every subscriber channel. Publishing after Close
// counts drops.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}
