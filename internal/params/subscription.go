package params

import "sync"

// Subscription receives snapshots from a Store.
type Subscription struct {
	store *Store
	out   chan Snapshot
	done  chan struct{}

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Snapshot
	closed bool

	closeOnce sync.Once
}

func newSubscription(store *Store) *Subscription {
	sub := &Subscription{
		store: store,
		out:   make(chan Snapshot),
		done:  make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)
	go sub.pump()
	return sub
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Snapshot {
	return s.out
}

// Close detaches the subscription from its store. Undelivered snapshots
// are dropped.
func (s *Subscription) Close() {
	s.store.unsubscribe(s)
	s.shutdown()
}

// push queues snap for delivery. Called with the store lock held, so queue
// order is publication order.
func (s *Subscription) push(snap Snapshot) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, snap)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *Subscription) shutdown() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.cond.Broadcast()
		s.mu.Unlock()
		close(s.done)
	})
}

// pump moves queued snapshots to the unbuffered output channel.
func (s *Subscription) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue[0] = Snapshot{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}
