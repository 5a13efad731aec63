package engine

import "sync"

// Subscription delivers engine events in publish order. Its mailbox is
// unbounded so a slow reader never stalls the engine.
type Subscription struct {
	out  chan Event
	wake chan struct{}
	done chan struct{}

	mu      sync.Mutex
	pending []Event
	closed  bool
	once    sync.Once
}

func newSubscription() *Subscription {
	s := &Subscription{
		out:  make(chan Event),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

// C returns the event channel. It is closed after the engine stops and
// every queued event has been delivered.
func (s *Subscription) C() <-chan Event {
	return s.out
}

// Close drops undelivered events and stops delivery.
func (s *Subscription) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscription) push(ev Event) {
	select {
	case <-s.done:
		return
	default:
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, ev)
	s.mu.Unlock()
	s.signal()
}

// finish marks the end of the stream; pump closes C once drained.
func (s *Subscription) finish() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		select {
		case <-s.wake:
		case <-s.done:
			return
		}
		for {
			s.mu.Lock()
			if len(s.pending) == 0 {
				closed := s.closed
				s.mu.Unlock()
				if closed {
					return
				}
				break
			}
			ev := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()

			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// bus fans events out to subscribers.
type bus struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

func (b *bus) subscribe() *Subscription {
	s := newSubscription()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.finish()
		return s
	}
	b.subs = append(b.subs, s)
	return s
}

func (b *bus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		s.push(ev)
	}
}

func (b *bus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		s.finish()
	}
}
