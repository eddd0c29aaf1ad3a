package params

import (
	"sync"
	"time"
)

// Store guards the shared control parameters and publishes every change.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Writers are fully serialised; subscribers see snapshots in publication order.
type Store struct {
	mu          sync.Mutex
	current     Snapshot
	subscribers map[*Subscription]struct{}
	closed      bool
	now         func() time.Time
}

// New creates a store holding initial as its first published snapshot.
func New(initial Snapshot) *Store {
	s := &Store{
		subscribers: make(map[*Subscription]struct{}),
		now:         time.Now,
	}
	initial.Version = 1
	initial.UpdatedAt = s.now()
	s.current = initial
	return s
}

// Snapshot returns the most recently published snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update applies fn to a copy of the current snapshot and publishes the
// result as one snapshot. fn must not call back into the store.
func (s *Store) Update(fn func(*Snapshot)) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	fn(&next)
	next.Version = s.current.Version + 1
	next.UpdatedAt = s.now()
	s.current = next

	for sub := range s.subscribers {
		sub.push(next)
	}
	return next
}

// Subscribe registers a subscriber. The latest snapshot is queued first.
func (s *Store) Subscribe() *Subscription {
	sub := newSubscription(s)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		sub.shutdown()
		return sub
	}
	sub.push(s.current)
	s.subscribers[sub] = struct{}{}
	return sub
}

// SubscriberCount returns the number of live subscriptions.
func (s *Store) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// Close ends every subscription. Setters keep working but publish to no one.
func (s *Store) Close() {
	s.mu.Lock()
	subs := s.subscribers
	s.subscribers = make(map[*Subscription]struct{})
	s.closed = true
	s.mu.Unlock()

	for sub := range subs {
		sub.shutdown()
	}
}

func (s *Store) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	delete(s.subscribers, sub)
	s.mu.Unlock()
}

// SetSetpoint sets the target value.
func (s *Store) SetSetpoint(v float64) Snapshot {
	return s.Update(func(p *Snapshot) {
		p.Setpoint = v
		p.HasSetpoint = true
	})
}

// ClearSetpoint makes the setpoint undefined again.
func (s *Store) ClearSetpoint() Snapshot {
	return s.Update(func(p *Snapshot) {
		p.Setpoint = 0
		p.HasSetpoint = false
	})
}

// SetCurrentValue records the latest measured value.
func (s *Store) SetCurrentValue(v float64) Snapshot {
	return s.Update(func(p *Snapshot) { p.CurrentValue = v })
}

// SetPreviousValue sets the value used for the differential term.
func (s *Store) SetPreviousValue(v float64) Snapshot {
	return s.Update(func(p *Snapshot) { p.PreviousValue = v })
}

// SetGain sets the overall output gain.
func (s *Store) SetGain(v float64) Snapshot {
	return s.Update(func(p *Snapshot) { p.Gain = v })
}

// SetKp sets the proportional coefficient.
func (s *Store) SetKp(v float64) Snapshot {
	return s.Update(func(p *Snapshot) { p.Kp = v })
}

// SetKi sets the integral coefficient.
func (s *Store) SetKi(v float64) Snapshot {
	return s.Update(func(p *Snapshot) { p.Ki = v })
}

// SetKd sets the differential coefficient.
func (s *Store) SetKd(v float64) Snapshot {
	return s.Update(func(p *Snapshot) { p.Kd = v })
}

// SetIntegral sets the integral accumulator.
func (s *Store) SetIntegral(v float64) Snapshot {
	return s.Update(func(p *Snapshot) { p.Integral = v })
}

// SetMinOutputPercentage sets the on/off threshold, clamped to [0,100].
func (s *Store) SetMinOutputPercentage(v float64) Snapshot {
	return s.Update(func(p *Snapshot) { p.MinOutputPercentage = ClampPercent(v) })
}

// SetPeriod sets the loop period. Negative values are stored as unset.
func (s *Store) SetPeriod(d time.Duration) Snapshot {
	if d < 0 {
		d = 0
	}
	return s.Update(func(p *Snapshot) { p.Period = d })
}

// SetEnabled sets the enabled flag.
func (s *Store) SetEnabled(v bool) Snapshot {
	return s.Update(func(p *Snapshot) { p.Enabled = v })
}

// SetReset sets the reset flag.
func (s *Store) SetReset(v bool) Snapshot {
	return s.Update(func(p *Snapshot) { p.Reset = v })
}

// SetClamped sets the integral-clamped flag.
func (s *Store) SetClamped(v bool) Snapshot {
	return s.Update(func(p *Snapshot) { p.Clamped = v })
}

// SetOutputOn records whether the device output is on.
func (s *Store) SetOutputOn(v bool) Snapshot {
	return s.Update(func(p *Snapshot) { p.OutputOn = v })
}

// SetOutputPercent records the last computed output, clamped to [0,100].
func (s *Store) SetOutputPercent(v float64) Snapshot {
	return s.Update(func(p *Snapshot) { p.OutputPercent = ClampPercent(v) })
}

// ClampPercent limits v to [0,100].
func ClampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
