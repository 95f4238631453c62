package serialdome

import (
	"sync"
	"time"
)

// ShutterState is the dome shutter phase.
type ShutterState int

const (
	ShutterOpen ShutterState = iota
	ShutterClosed
	ShutterOpening
	ShutterClosing
	ShutterError
)

func (s ShutterState) String() string {
	switch s {
	case ShutterOpen:
		return "Open"
	case ShutterClosed:
		return "Closed"
	case ShutterOpening:
		return "Opening"
	case ShutterClosing:
		return "Closing"
	case ShutterError:
		return "Error"
	}
	return "Unknown"
}

// Status is a snapshot of everything the driver knows about the dome.
// Every flag reflects the latest event reported by the device, not a
// command assumed to have succeeded.
type Status struct {
	Azimuth      float64
	HomePosition float64
	ParkPosition float64

	AtHome  bool
	AtPark  bool
	Synced  bool
	Slaved  bool
	Link    bool
	Slewing bool

	Shutter ShutterState
}

// state is the shared device state record. The send path sets in-progress
// flags through update, the receive path applies telemetry through apply,
// and operation waits block on the condition until their predicate holds.
// One mutex guards everything; apply broadcasts after every event so a
// waiter re-checks its predicate exactly when something changed.
type state struct {
	mu   sync.Mutex
	cond *sync.Cond

	cur      Status
	down     bool
	abortGen uint64
}

func newState() *state {
	s := &state{
		cur:  Status{Shutter: ShutterClosed},
		down: true,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// reset returns the record to the initial snapshot. Called on connect
// (link up) and disconnect (link down); waiters are woken either way.
func (s *state) reset(link bool) {
	s.mu.Lock()
	s.cur = Status{Shutter: ShutterClosed, Link: link}
	s.down = !link
	s.cond.Broadcast()
	s.mu.Unlock()
}

// snapshot returns a consistent copy of the current status.
func (s *state) snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// update runs a send-side mutation (in-progress flags, park position)
// under the lock and wakes any waiters.
func (s *state) update(f func(*Status)) {
	s.mu.Lock()
	f(&s.cur)
	s.cond.Broadcast()
	s.mu.Unlock()
}

// apply folds one telemetry event into the status. It is the only
// receive-side mutator and runs events strictly in arrival order.
func (s *state) apply(ev Event) {
	s.mu.Lock()
	defer func() {
		s.cond.Broadcast()
		s.mu.Unlock()
	}()

	switch e := ev.(type) {
	case HomedEvent:
		s.cur.Azimuth = e.Azimuth
		s.cur.HomePosition = e.Azimuth
		s.cur.AtHome = true
		s.cur.Slewing = false
	case PositionEvent:
		s.cur.Azimuth = e.Azimuth
		s.cur.Slewing = false
		s.cur.AtHome = e.Azimuth == s.cur.HomePosition
	case ShutterEvent:
		if e.Open {
			s.cur.Shutter = ShutterOpen
		} else {
			s.cur.Shutter = ShutterClosed
		}
	case SyncedEvent:
		s.cur.Synced = true
	case ParkedEvent:
		s.cur.AtPark = true
	case UnknownEvent:
		// dropped
	}
}

// abort wakes every waiter and makes abortable waits fail with ErrAborted.
func (s *state) abort() {
	s.mu.Lock()
	s.abortGen++
	s.cond.Broadcast()
	s.mu.Unlock()
}

// linkLost marks the link down and unblocks all waiters with ErrLinkDown.
func (s *state) linkLost() {
	s.mu.Lock()
	s.down = true
	s.cur.Link = false
	s.cond.Broadcast()
	s.mu.Unlock()
}

// wait blocks until pred holds over a consistent snapshot, the timeout
// expires, the link drops, or an abort is delivered. The receive path only
// ever broadcasts, so it can never block on the condition it signals.
func (s *state) wait(timeout time.Duration, pred func(Status) bool) error {
	deadline := time.Now().Add(timeout)

	// The condition has no native timed wait; a timer broadcast wakes the
	// loop so it can notice the deadline passed.
	timer := time.AfterFunc(timeout, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	gen := s.abortGen
	for {
		if s.down {
			return ErrLinkDown
		}
		if s.abortGen != gen {
			return ErrAborted
		}
		if pred(s.cur) {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrTimeout
		}
		s.cond.Wait()
	}
}
